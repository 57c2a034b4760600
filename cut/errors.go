package cut

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

var (
	ErrUnauthorized                 = errors.New("caller is not authorized to cut")
	ErrNoSelectorsInFacetCut        = errors.New("no selectors in facet to cut")
	ErrInitCalldataWithoutTarget    = errors.New("init calldata given without an init facet")
	ErrZeroFacetAddress             = errors.New("facet address can't be zero")
	ErrFacetHasNoLogic              = errors.New("facet has no logic")
	ErrSelectorAlreadyRegistered    = errors.New("function already registered")
	ErrSelectorNotRegistered        = errors.New("function not registered")
	ErrImmutableFunction            = errors.New("can't change immutable function")
	ErrNoOpReplace                  = errors.New("can't replace function with the same facet")
	ErrRemoveFacetAddressMustBeZero = errors.New("remove facet address must be zero")
	ErrIncorrectAction              = errors.New("incorrect facet cut action")
)

// InitIndex is the Error.Index of failures attributed to the initializer rather than a cut.
const InitIndex = -1

// Error is a rejected cut. It names the offending cut, facet and, when one is involved, the
// selector, and unwraps to one of the sentinel errors above.
type Error struct {
	Index       int
	Action      Action
	Facet       common.Address
	Selector    selector.Selector
	HasSelector bool
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Index == InitIndex {
		fmt.Fprintf(&b, "init facet %s", e.Facet.Hex())
	} else {
		fmt.Fprintf(&b, "cut %d (%s facet %s)", e.Index, e.Action, e.Facet.Hex())
	}
	if e.HasSelector {
		fmt.Fprintf(&b, " selector %s", e.Selector)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func cutError(index int, c FacetCut, err error) *Error {
	return &Error{Index: index, Action: c.Action, Facet: c.FacetAddress, Err: err}
}

func selectorError(index int, c FacetCut, sel selector.Selector, err error) *Error {
	e := cutError(index, c, err)
	e.Selector = sel
	e.HasSelector = true

	return e
}
