// Package manifest loads cut manifests: declarative YAML or TOML descriptions of a
// diamondCut batch that reference facets by catalog name.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

// AllFunctions selects every selector a facet lists.
const AllFunctions = "*"

var (
	ErrUnsupportedFormat = errors.New("unsupported manifest format")
	ErrNoFunctions       = errors.New("no functions listed")
	ErrNotListable       = errors.New("facet does not list its selectors")
	ErrInvalidOwner      = errors.New("invalid owner address")
)

// Cut is one facet cut in a manifest.
type Cut struct {
	// Facet is a catalog reference: an address, "name@version" or a bare name. Empty for remove.
	Facet     string   `yaml:"facet,omitempty" toml:"facet,omitempty"`
	Action    string   `yaml:"action" toml:"action"`
	Functions []string `yaml:"functions" toml:"functions"`
}

// Init names the initialization hook of a manifest.
type Init struct {
	Facet    string `yaml:"facet" toml:"facet"`
	Calldata string `yaml:"calldata,omitempty" toml:"calldata,omitempty"`
}

// Manifest is a declarative cut.
type Manifest struct {
	Owner string `yaml:"owner,omitempty" toml:"owner,omitempty"`
	Cuts  []Cut  `yaml:"cuts" toml:"cuts"`
	Init  *Init  `yaml:"init,omitempty" toml:"init,omitempty"`
}

// Load reads a manifest, choosing the decoder by file extension.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return Decode(strings.TrimPrefix(filepath.Ext(path), "."), b)
}

// Decode decodes b as format ("yaml", "yml" or "toml").
func Decode(format string, b []byte) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("failed to decode yaml manifest: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("failed to decode toml manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}

	return &m, nil
}

// OwnerAddress returns the parsed owner, or the zero address when none is set.
func (m *Manifest) OwnerAddress() (common.Address, error) {
	if m.Owner == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(m.Owner) {
		return common.Address{}, fmt.Errorf("%q: %w", m.Owner, ErrInvalidOwner)
	}

	return common.HexToAddress(m.Owner), nil
}

// Resolve turns the manifest into a cut request against the facets in catalog.
//
// Cut validity is left to the cut engine; Resolve only fails on references it cannot
// translate.
func (m *Manifest) Resolve(catalog *facet.Catalog) (cut.Request, error) {
	var req cut.Request
	for i, c := range m.Cuts {
		fc, err := resolveCut(catalog, c)
		if err != nil {
			return cut.Request{}, fmt.Errorf("cut %d: %w", i, err)
		}
		req.Cuts = append(req.Cuts, fc)
	}

	if m.Init != nil {
		e, err := catalog.Lookup(m.Init.Facet)
		if err != nil {
			return cut.Request{}, fmt.Errorf("init: %w", err)
		}
		req.Init.Facet = e.Address
		if m.Init.Calldata != "" {
			data, err := hexutil.Decode(m.Init.Calldata)
			if err != nil {
				return cut.Request{}, fmt.Errorf("init calldata: %w", err)
			}
			req.Init.Calldata = data
		}
	}

	return req, nil
}

func resolveCut(catalog *facet.Catalog, c Cut) (cut.FacetCut, error) {
	action, err := cut.ParseAction(c.Action)
	if err != nil {
		return cut.FacetCut{}, err
	}

	fc := cut.FacetCut{Action: action}
	var entry *facet.Entry
	switch {
	case c.Facet == "":
	case common.IsHexAddress(c.Facet) && common.HexToAddress(c.Facet) == (common.Address{}):
	default:
		e, err := catalog.Lookup(c.Facet)
		if err != nil {
			return cut.FacetCut{}, err
		}
		entry = &e
		fc.FacetAddress = e.Address
	}

	if len(c.Functions) == 0 {
		return cut.FacetCut{}, ErrNoFunctions
	}
	for _, fn := range c.Functions {
		if strings.TrimSpace(fn) == AllFunctions {
			lister, ok := listerOf(entry)
			if !ok {
				return cut.FacetCut{}, fmt.Errorf("%q: %w", c.Facet, ErrNotListable)
			}
			fc.FunctionSelectors = append(fc.FunctionSelectors, lister.Selectors()...)

			continue
		}
		sel, err := selector.ParseOrSignature(fn)
		if err != nil {
			return cut.FacetCut{}, err
		}
		fc.FunctionSelectors = append(fc.FunctionSelectors, sel)
	}

	return fc, nil
}

func listerOf(e *facet.Entry) (facet.SelectorLister, bool) {
	if e == nil {
		return nil, false
	}
	l, ok := e.Logic.(facet.SelectorLister)

	return l, ok
}

// FromRequest renders req as a manifest, naming facets by catalog reference where known.
func FromRequest(catalog *facet.Catalog, owner common.Address, req cut.Request) *Manifest {
	ref := func(addr common.Address) string {
		if addr == (common.Address{}) {
			return ""
		}
		if e, ok := catalog.Entry(addr); ok {
			return e.Ref()
		}

		return addr.Hex()
	}

	m := &Manifest{}
	if owner != (common.Address{}) {
		m.Owner = owner.Hex()
	}
	for _, c := range req.Cuts {
		fns := make([]string, len(c.FunctionSelectors))
		for i, s := range c.FunctionSelectors {
			fns[i] = s.String()
		}
		m.Cuts = append(m.Cuts, Cut{Facet: ref(c.FacetAddress), Action: c.Action.String(), Functions: fns})
	}
	if !req.Init.IsZero() {
		m.Init = &Init{Facet: ref(req.Init.Facet)}
		if len(req.Init.Calldata) > 0 {
			m.Init.Calldata = hexutil.Encode(req.Init.Calldata)
		}
	}

	return m
}

// Encode renders m as format ("yaml", "yml" or "toml").
func (m *Manifest) Encode(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(m)
	case "toml":
		return toml.Marshal(m)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}
