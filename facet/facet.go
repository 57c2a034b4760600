// Package facet defines the contract between a diamond and the logic it routes calls to.
//
// A facet never owns state. Each invocation receives a Call that lends it the diamond's own
// storage for the duration of that call only; whatever the facet writes there is the diamond's
// state, visible to every other facet reading the same region.
package facet

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/segmentio/ksuid"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/registry"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

// Logic is installed executable facet code.
type Logic interface {
	// Invoke runs the function named by call.Selector. A returned error aborts the call and
	// discards every write it made.
	Invoke(call *Call) ([]byte, error)
}

// LogicFunc adapts a function to Logic.
type LogicFunc func(call *Call) ([]byte, error)

func (f LogicFunc) Invoke(call *Call) ([]byte, error) { return f(call) }

// Initializer is implemented by facets that can run as a cut's init hook. The call carries
// the init calldata as Input and a zero Selector.
type Initializer interface {
	Initialize(call *Call) error
}

// SelectorLister is implemented by facets that know which selectors they serve.
type SelectorLister interface {
	Selectors() []selector.Selector
}

// Loupe is read access to a diamond's facet index.
type Loupe interface {
	Facets() []registry.Facet
	FacetFunctionSelectors(facet common.Address) []selector.Selector
	FacetAddresses() []common.Address
	FacetAddress(sel selector.Selector) (common.Address, bool)
}

// Host is the diamond executing a call, as seen from inside it.
type Host interface {
	// Address is the diamond's own address.
	Address() common.Address
	// DiamondCut applies req as the call's caller within the current call, so the cut commits
	// or rolls back together with it.
	DiamondCut(req cut.Request) error
	// Loupe reflects every cut applied so far in the current call.
	Loupe() Loupe
}

// Call is one invocation of facet logic in the borrowed context of a diamond.
type Call struct {
	ID       ksuid.KSUID
	Caller   common.Address
	Selector selector.Selector
	Input    []byte
	// Storage is the diamond's state, never a facet-private copy. It must not be retained
	// after Invoke returns.
	Storage state.Storage
	Host    Host
}

// Region opens region id of the diamond's storage.
func (c *Call) Region(id state.RegionID) state.Region {
	return state.Open(c.Storage, id)
}

// Namespace opens the namespaced region for name.
func (c *Call) Namespace(name string) state.Region {
	return c.Region(state.Namespace(name))
}

// Bind binds a shared schema against the diamond's storage.
func (c *Call) Bind(schema state.Schema) (*state.Shared, error) {
	return state.Bind(c.Storage, schema)
}

// Resolver finds the logic installed at a facet address.
type Resolver interface {
	Resolve(addr common.Address) (Logic, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(addr common.Address) (Logic, bool)

func (f ResolverFunc) Resolve(addr common.Address) (Logic, bool) { return f(addr) }

// LogicChecker adapts r to the cut engine's logic check.
func LogicChecker(r Resolver) cut.LogicChecker {
	return cut.LogicCheckerFunc(func(addr common.Address) bool {
		_, ok := r.Resolve(addr)
		return ok
	})
}
