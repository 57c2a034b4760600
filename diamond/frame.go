package diamond

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/segmentio/ksuid"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/registry"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

// frame is one in-flight call. It carries the registry and state the call sees, both private
// until the outermost frame is committed.
type frame struct {
	d       *Diamond
	reg     *registry.Registry
	tx      *state.Tx
	caller  common.Address
	records []cut.Record
}

var _ facet.Host = (*frame)(nil)

func (d *Diamond) newFrame(tx *state.Tx, caller common.Address) *frame {
	return &frame{d: d, reg: d.reg, tx: tx, caller: caller}
}

func (f *frame) Address() common.Address {
	return f.d.addr
}

// DiamondCut lets a facet cut the diamond as the call's caller.
func (f *frame) DiamondCut(req cut.Request) error {
	return f.cut(req, true)
}

func (f *frame) Loupe() facet.Loupe {
	return loupeView{f.reg}
}

// cut stages req in the frame. Nothing becomes visible outside the frame until it is committed.
func (f *frame) cut(req cut.Request, authorize bool) error {
	if authorize && !f.d.authorizer.IsAuthorized(f.tx, f.caller) {
		return fmt.Errorf("caller %s: %w", f.caller.Hex(), cut.ErrUnauthorized)
	}

	// stamped before the init hook so cuts it makes are recorded after this one
	record := cut.NewRecord(f.d.addr, f.caller, req)
	var nested []cut.Record
	next, err := f.d.engine.Apply(f.reg, req, func(staged *registry.Registry, init cut.Init) (*registry.Registry, error) {
		final, records, err := f.runInit(staged, init)
		nested = records

		return final, err
	})
	if err != nil {
		return err
	}

	f.reg = next
	f.records = append(f.records, record)
	f.records = append(f.records, nested...)

	return nil
}

// runInit executes an init hook against the staged registry in a child frame. The hook may cut
// the diamond again; its writes and cuts are folded into this frame only if it succeeds.
func (f *frame) runInit(staged *registry.Registry, init cut.Init) (*registry.Registry, []cut.Record, error) {
	logic, err := f.d.logicAt(init.Facet, selector.Selector{})
	if err != nil {
		return nil, nil, err
	}

	child := f.tx.Begin()
	sub := &frame{d: f.d, reg: staged, tx: child, caller: f.caller}
	call := &facet.Call{
		ID:      ksuid.New(),
		Caller:  f.caller,
		Input:   init.Calldata,
		Storage: child,
		Host:    sub,
	}

	if initializer, ok := logic.(facet.Initializer); ok {
		err = initializer.Initialize(call)
	} else {
		// plain logic is initialised by calling the function the calldata names
		call.Selector, call.Input, err = splitCalldata(init.Calldata)
		if err == nil {
			_, err = logic.Invoke(call)
		}
	}
	if err != nil {
		child.Discard()
		f.d.lggr.Debugw("Init hook failed", "call", call.ID.String(), "facet", init.Facet.Hex(), "err", err)

		return nil, nil, err
	}
	if err := child.Commit(); err != nil {
		return nil, nil, err
	}

	return sub.reg, sub.records, nil
}

// loupeView hides the registry mutators from facets.
type loupeView struct {
	r *registry.Registry
}

func (v loupeView) Facets() []registry.Facet { return v.r.Facets() }

func (v loupeView) FacetFunctionSelectors(facet common.Address) []selector.Selector {
	return v.r.FacetFunctionSelectors(facet)
}

func (v loupeView) FacetAddresses() []common.Address { return v.r.FacetAddresses() }

func (v loupeView) FacetAddress(sel selector.Selector) (common.Address, bool) {
	return v.r.FacetAddress(sel)
}
