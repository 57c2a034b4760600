// Package diamond implements the router: a single long-lived entity that routes every call to
// the facet currently registered for its selector, executes it against the diamond's own
// state, and reconfigures itself through atomic diamond cuts.
//
// A Diamond serialises every state-changing operation. Route and DiamondCut each run to
// completion under one lock and either commit all of their effects (registry, state and change
// records) or none. Loupe queries share a read lock and always observe a committed snapshot.
package diamond

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/segmentio/ksuid"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
	"github.com/smartcontractkit/chainlink-diamond-framework/registry"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

var (
	ErrFunctionNotFound = errors.New("diamond: function does not exist")
	ErrCalldataTooShort = errors.New("diamond: calldata shorter than a selector")
	ErrZeroOwner        = errors.New("diamond: owner can't be the zero address")
	ErrNilResolver      = errors.New("diamond: resolver is nil")
)

// Diamond is the router.
type Diamond struct {
	mu sync.RWMutex

	addr       common.Address
	resolver   facet.Resolver
	native     facet.Logic
	engine     *cut.Engine
	authorizer Authorizer
	sink       cut.Sink
	lggr       logger.Logger

	reg   *registry.Registry
	store *state.Store
}

// New bootstraps a diamond owned by owner and applies req on the owner's behalf, including its
// init hook. Immutable functions from WithImmutableFunctions are registered first, in the same
// cut. If anything fails no diamond is returned.
func New(owner common.Address, resolver facet.Resolver, req cut.Request, opts ...Option) (*Diamond, error) {
	if owner == (common.Address{}) {
		return nil, ErrZeroOwner
	}
	if resolver == nil {
		return nil, ErrNilResolver
	}

	cfg := config{
		lggr:       logger.Nop(),
		authorizer: OwnerAuthorizer{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	addr := crypto.CreateAddress(owner, 0)
	if cfg.address != nil {
		addr = *cfg.address
	}

	lggr := cfg.lggr.Named("diamond").With("diamond", addr.Hex())
	var sink cut.Sink = cut.NewLogSink(lggr)
	switch len(cfg.sinks) {
	case 0:
	case 1:
		sink = cfg.sinks[0]
	default:
		sink = cut.MultiSink(cfg.sinks)
	}

	d := &Diamond{
		addr:       addr,
		resolver:   resolver,
		native:     cfg.native,
		engine:     cut.NewEngine(addr, logicChecker(addr, cfg.native, resolver)),
		authorizer: cfg.authorizer,
		sink:       sink,
		lggr:       lggr,
		reg:        registry.New(),
		store:      state.NewStore(),
	}

	bootstrap := cut.Request{Init: req.Init}
	if len(cfg.immutable) > 0 {
		bootstrap.Cuts = append(bootstrap.Cuts, cut.FacetCut{
			FacetAddress:      addr,
			Action:            cut.Add,
			FunctionSelectors: cfg.immutable,
		})
	}
	bootstrap.Cuts = append(bootstrap.Cuts, req.Clone().Cuts...)

	tx := d.store.Begin()
	SetContractOwner(tx, owner)
	f := d.newFrame(tx, owner)
	if err := f.cut(bootstrap, false); err != nil {
		tx.Discard()
		return nil, fmt.Errorf("bootstrap diamond: %w", err)
	}
	if err := d.commit(f); err != nil {
		return nil, fmt.Errorf("bootstrap diamond: %w", err)
	}

	d.lggr.Infow("Diamond bootstrapped",
		"owner", owner.Hex(),
		"facets", len(d.reg.FacetAddresses()),
		"selectors", d.reg.Len(),
	)

	return d, nil
}

// logicChecker reports the diamond's own address as having logic only when router-native logic
// is configured.
func logicChecker(addr common.Address, native facet.Logic, resolver facet.Resolver) cut.LogicChecker {
	facets := facet.LogicChecker(resolver)

	return cut.LogicCheckerFunc(func(a common.Address) bool {
		if a == addr {
			return native != nil
		}

		return facets.HasLogic(a)
	})
}

// NewWithCutFacet bootstraps a diamond whose only function is diamondCut, backed by cutFacet.
// Everything else is configured through later cuts.
func NewWithCutFacet(owner common.Address, resolver facet.Resolver, cutFacet common.Address, opts ...Option) (*Diamond, error) {
	return New(owner, resolver, cut.Request{Cuts: []cut.FacetCut{{
		FacetAddress:      cutFacet,
		Action:            cut.Add,
		FunctionSelectors: []selector.Selector{cut.DiamondCutSelector},
	}}}, opts...)
}

// Address returns the diamond's address. Selectors backed by it are immutable.
func (d *Diamond) Address() common.Address {
	return d.addr
}

// Owner returns the current contract owner.
func (d *Diamond) Owner() common.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return ContractOwner(d.store)
}

// Route invokes the facet registered for sel with input, against the diamond's state. The
// facet's error is returned unchanged and none of its writes are kept.
func (d *Diamond) Route(caller common.Address, sel selector.Selector, input []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	addr, ok := d.reg.FacetAddress(sel)
	if !ok {
		return nil, fmt.Errorf("selector %s: %w", sel, ErrFunctionNotFound)
	}
	logic, err := d.logicAt(addr, sel)
	if err != nil {
		return nil, err
	}

	tx := d.store.Begin()
	f := d.newFrame(tx, caller)
	call := &facet.Call{
		ID:       ksuid.New(),
		Caller:   caller,
		Selector: sel,
		Input:    input,
		Storage:  tx,
		Host:     f,
	}

	out, err := logic.Invoke(call)
	if err != nil {
		tx.Discard()
		d.lggr.Debugw("Call failed", "call", call.ID.String(), "selector", sel.String(), "facet", addr.Hex(), "err", err)

		return nil, err
	}
	if err := d.commit(f); err != nil {
		return nil, err
	}
	d.lggr.Debugw("Call routed", "call", call.ID.String(), "selector", sel.String(), "facet", addr.Hex())

	return out, nil
}

// Fallback routes raw calldata: a 4-byte selector followed by the function input.
func (d *Diamond) Fallback(caller common.Address, calldata []byte) ([]byte, error) {
	sel, input, err := splitCalldata(calldata)
	if err != nil {
		return nil, err
	}

	return d.Route(caller, sel, input)
}

// DiamondCut applies req on behalf of caller. The authorizer is consulted before the request
// is looked at. On success the registry, any state written by the init hook and the change
// record are committed together.
func (d *Diamond) DiamondCut(caller common.Address, req cut.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx := d.store.Begin()
	f := d.newFrame(tx, caller)
	if err := f.cut(req, true); err != nil {
		tx.Discard()
		return err
	}

	return d.commit(f)
}

// Facets returns every facet with the selectors it backs.
func (d *Diamond) Facets() []registry.Facet {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.reg.Facets()
}

// FacetFunctionSelectors returns the selectors backed by facet.
func (d *Diamond) FacetFunctionSelectors(facet common.Address) []selector.Selector {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.reg.FacetFunctionSelectors(facet)
}

// FacetAddresses returns every facet address once.
func (d *Diamond) FacetAddresses() []common.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.reg.FacetAddresses()
}

// FacetAddress returns the facet backing sel.
func (d *Diamond) FacetAddress(sel selector.Selector) (common.Address, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.reg.FacetAddress(sel)
}

// Entries returns the selector table, positions included.
func (d *Diamond) Entries() []selector.Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.reg.Entries()
}

// Verify checks the registry invariants.
func (d *Diamond) Verify() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.reg.Verify()
}

// Load reads committed state.
func (d *Diamond) Load(region state.RegionID, key common.Hash) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.store.Load(region, key)
}

// Dump returns a copy of all committed state.
func (d *Diamond) Dump() map[state.RegionID]map[common.Hash][]byte {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.store.Dump()
}

// logicAt resolves the logic behind a registered facet address.
func (d *Diamond) logicAt(addr common.Address, sel selector.Selector) (facet.Logic, error) {
	if addr == d.addr {
		if d.native == nil {
			return nil, fmt.Errorf("selector %s: %w", sel, ErrFunctionNotFound)
		}

		return d.native, nil
	}
	logic, ok := d.resolver.Resolve(addr)
	if !ok {
		return nil, fmt.Errorf("facet %s: %w", addr.Hex(), cut.ErrFacetHasNoLogic)
	}

	return logic, nil
}

// commit publishes a finished frame: the registry it ended with, its state and, once both are
// in place, its change records. Sink failures are logged; the commit stands.
func (d *Diamond) commit(f *frame) error {
	if f.reg != d.reg {
		if err := f.reg.Verify(); err != nil {
			f.tx.Discard()
			d.lggr.Errorw("Rejected cut leaving an inconsistent registry", "err", err)

			return err
		}
	}
	if err := f.tx.Commit(); err != nil {
		return err
	}
	d.reg = f.reg

	for _, r := range f.records {
		d.lggr.Infow("Diamond cut committed",
			"record", r.ID,
			"caller", r.Caller.Hex(),
			"cuts", len(r.Cuts),
			"selectors", d.reg.Len(),
		)
		if err := d.sink.Publish(r); err != nil {
			d.lggr.Errorw("Failed to publish change record", "record", r.ID, "err", err)
		}
	}

	return nil
}

func splitCalldata(calldata []byte) (selector.Selector, []byte, error) {
	if len(calldata) < selector.Length {
		return selector.Selector{}, nil, fmt.Errorf("%d bytes: %w", len(calldata), ErrCalldataTooShort)
	}
	sel, err := selector.FromBytes(calldata[:selector.Length])
	if err != nil {
		return selector.Selector{}, nil, err
	}

	return sel, calldata[selector.Length:], nil
}
