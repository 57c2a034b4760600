// Package cut applies diamond cuts: atomic batches of Add, Replace and Remove actions against a
// facet registry.
package cut

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

// DiamondCutSignature is the function through which cut requests reach a diamond.
const DiamondCutSignature = "diamondCut((address,uint8,bytes4[])[],address,bytes)"

// DiamondCutSelector is 0x1f931c1c.
var DiamondCutSelector = selector.FromSignature(DiamondCutSignature)

// Action is what a FacetCut does to its selectors. The numeric values match the IDiamondCut
// FacetCutAction enum.
type Action uint8

const (
	Add Action = iota
	Replace
	Remove
)

var actionNames = map[Action]string{
	Add:     "add",
	Replace: "replace",
	Remove:  "remove",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}

	return fmt.Sprintf("action(%d)", uint8(a))
}

// ParseAction parses the text form of an action, case-insensitively.
func ParseAction(s string) (Action, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for a, name := range actionNames {
		if name == want {
			return a, nil
		}
	}

	return 0, fmt.Errorf("%q: %w", s, ErrIncorrectAction)
}

func (a Action) MarshalText() ([]byte, error) {
	if _, ok := actionNames[a]; !ok {
		return nil, fmt.Errorf("%d: %w", uint8(a), ErrIncorrectAction)
	}

	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed

	return nil
}

// FacetCut is one entry of a cut request.
type FacetCut struct {
	FacetAddress      common.Address      `json:"facetAddress" yaml:"facetAddress"`
	Action            Action              `json:"action" yaml:"action"`
	FunctionSelectors []selector.Selector `json:"functionSelectors" yaml:"functionSelectors"`
}

func (c FacetCut) String() string {
	sels := make([]string, len(c.FunctionSelectors))
	for i, s := range c.FunctionSelectors {
		sels[i] = s.String()
	}

	return fmt.Sprintf("%s %s [%s]", c.Action, c.FacetAddress.Hex(), strings.Join(sels, " "))
}

// Init names the facet whose initializer runs after the cut is staged, and its input.
// A zero Facet means no initializer.
type Init struct {
	Facet    common.Address `json:"facet" yaml:"facet"`
	Calldata hexutil.Bytes  `json:"calldata" yaml:"calldata"`
}

// IsZero reports whether no initializer is requested.
func (i Init) IsZero() bool {
	return i.Facet == (common.Address{}) && len(i.Calldata) == 0
}

// Request is a complete diamond cut. Cuts are processed in order.
type Request struct {
	Cuts []FacetCut `json:"cuts" yaml:"cuts"`
	Init Init       `json:"init" yaml:"init"`
}

// Clone returns a deep copy, so records and callers never share backing arrays.
func (r Request) Clone() Request {
	out := Request{
		Cuts: make([]FacetCut, len(r.Cuts)),
		Init: Init{Facet: r.Init.Facet, Calldata: bytes.Clone(r.Init.Calldata)},
	}
	for i, c := range r.Cuts {
		sels := make([]selector.Selector, len(c.FunctionSelectors))
		copy(sels, c.FunctionSelectors)
		out.Cuts[i] = FacetCut{FacetAddress: c.FacetAddress, Action: c.Action, FunctionSelectors: sels}
	}

	return out
}

// Summary renders one line per cut, followed by the initializer if any.
func (r Request) Summary() []string {
	out := make([]string, 0, len(r.Cuts)+1)
	for _, c := range r.Cuts {
		out = append(out, c.String())
	}
	if !r.Init.IsZero() {
		out = append(out, fmt.Sprintf("init %s %s", r.Init.Facet.Hex(), r.Init.Calldata))
	}

	return out
}
