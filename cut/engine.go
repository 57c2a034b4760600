package cut

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/registry"
)

// LogicChecker reports whether executable logic is installed at an address.
type LogicChecker interface {
	HasLogic(addr common.Address) bool
}

// LogicCheckerFunc adapts a function to LogicChecker.
type LogicCheckerFunc func(addr common.Address) bool

func (f LogicCheckerFunc) HasLogic(addr common.Address) bool { return f(addr) }

// InitFunc runs a cut's initializer against the staged registry. It returns the registry to
// commit, which differs from next when the initializer itself cut the diamond.
type InitFunc func(next *registry.Registry, init Init) (*registry.Registry, error)

// Engine validates and applies cut requests for one diamond.
//
// Selectors backed by the diamond's own address are router-native and immutable once
// registered. The checker decides whether the diamond itself has logic to back them.
type Engine struct {
	diamond common.Address
	checker LogicChecker
}

// NewEngine returns an engine for the diamond at addr resolving facet logic through checker.
func NewEngine(addr common.Address, checker LogicChecker) *Engine {
	return &Engine{diamond: addr, checker: checker}
}

// Diamond returns the address treated as router-native.
func (e *Engine) Diamond() common.Address {
	return e.diamond
}

// Apply validates req against current and returns the resulting registry. current is never
// modified: every action is applied to a clone, so a rejected request leaves no trace.
//
// Cuts are processed in order and each sees the registry produced by the cuts before it. If
// req names an initializer, initFn runs once every cut has been staged; its failure fails the
// whole request and is returned unchanged.
func (e *Engine) Apply(current *registry.Registry, req Request, initFn InitFunc) (*registry.Registry, error) {
	for i, c := range req.Cuts {
		if len(c.FunctionSelectors) == 0 {
			return nil, cutError(i, c, ErrNoSelectorsInFacetCut)
		}
	}
	if req.Init.Facet == (common.Address{}) && len(req.Init.Calldata) > 0 {
		return nil, &Error{Index: InitIndex, Err: ErrInitCalldataWithoutTarget}
	}

	next := current.Clone()
	for i, c := range req.Cuts {
		var err error
		switch c.Action {
		case Add:
			err = e.add(next, i, c)
		case Replace:
			err = e.replace(next, i, c)
		case Remove:
			err = e.remove(next, i, c)
		default:
			err = cutError(i, c, ErrIncorrectAction)
		}
		if err != nil {
			return nil, err
		}
	}

	if req.Init.Facet == (common.Address{}) {
		return next, nil
	}
	if !e.hasLogic(req.Init.Facet) {
		return nil, &Error{Index: InitIndex, Facet: req.Init.Facet, Err: ErrFacetHasNoLogic}
	}
	if initFn == nil {
		return next, nil
	}

	final, err := initFn(next, req.Init)
	if err != nil {
		return nil, err
	}
	if final == nil {
		final = next
	}

	return final, nil
}

func (e *Engine) add(next *registry.Registry, i int, c FacetCut) error {
	if err := e.checkTarget(i, c); err != nil {
		return err
	}
	for _, sel := range c.FunctionSelectors {
		if _, exists := next.FacetAddress(sel); exists {
			return selectorError(i, c, sel, ErrSelectorAlreadyRegistered)
		}
		if err := next.Add(sel, c.FacetAddress); err != nil {
			return selectorError(i, c, sel, err)
		}
	}

	return nil
}

func (e *Engine) replace(next *registry.Registry, i int, c FacetCut) error {
	if err := e.checkTarget(i, c); err != nil {
		return err
	}
	for _, sel := range c.FunctionSelectors {
		old, exists := next.FacetAddress(sel)
		switch {
		case !exists:
			return selectorError(i, c, sel, ErrSelectorNotRegistered)
		case old == e.diamond:
			return selectorError(i, c, sel, ErrImmutableFunction)
		case old == c.FacetAddress:
			return selectorError(i, c, sel, ErrNoOpReplace)
		}
		if err := next.Replace(sel, c.FacetAddress); err != nil {
			return selectorError(i, c, sel, err)
		}
	}

	return nil
}

func (e *Engine) remove(next *registry.Registry, i int, c FacetCut) error {
	if c.FacetAddress != (common.Address{}) {
		return cutError(i, c, ErrRemoveFacetAddressMustBeZero)
	}
	for _, sel := range c.FunctionSelectors {
		old, exists := next.FacetAddress(sel)
		switch {
		case !exists:
			return selectorError(i, c, sel, ErrSelectorNotRegistered)
		case old == e.diamond:
			return selectorError(i, c, sel, ErrImmutableFunction)
		}
		if err := next.Remove(sel); err != nil {
			return selectorError(i, c, sel, err)
		}
	}

	return nil
}

func (e *Engine) checkTarget(i int, c FacetCut) error {
	if c.FacetAddress == (common.Address{}) {
		return cutError(i, c, ErrZeroFacetAddress)
	}
	if !e.hasLogic(c.FacetAddress) {
		return cutError(i, c, ErrFacetHasNoLogic)
	}

	return nil
}

func (e *Engine) hasLogic(addr common.Address) bool {
	return e.checker != nil && e.checker.HasLogic(addr)
}
