// Package registry maintains the facet index of a diamond: which facets exist and which
// selectors each of them backs. It owns the diamond's selector table and keeps the two views in
// lockstep; every loupe query is answered from here.
package registry

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

var ErrIndexCorrupt = errors.New("facet index disagrees with selector table")

// Facet pairs a facet address with the selectors it currently backs.
type Facet struct {
	FacetAddress      common.Address      `json:"facetAddress" yaml:"facetAddress"`
	FunctionSelectors []selector.Selector `json:"functionSelectors" yaml:"functionSelectors"`
}

// Registry is the selector table plus an eagerly materialised per-facet index.
//
// Facets and per-facet selector lists both use swap-with-last removal. Until something is
// removed, facets are listed in the order they first received a selector; neither order is
// stable across removals.
//
// Registry is not safe for concurrent use. The diamond only ever mutates a private clone and
// publishes it whole.
type Registry struct {
	table *selector.Table

	facets      []common.Address
	facetPos    map[common.Address]int
	selectorsOf map[common.Address][]selector.Selector
	selectorPos map[selector.Selector]int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		table:       selector.NewTable(),
		facetPos:    make(map[common.Address]int),
		selectorsOf: make(map[common.Address][]selector.Selector),
		selectorPos: make(map[selector.Selector]int),
	}
}

// Add registers sel as backed by facet.
func (r *Registry) Add(sel selector.Selector, facet common.Address) error {
	if err := r.table.Insert(sel, facet); err != nil {
		return err
	}
	r.attach(sel, facet)

	return nil
}

// Replace moves sel to a new facet, keeping its table position.
func (r *Registry) Replace(sel selector.Selector, facet common.Address) error {
	old, ok := r.table.Lookup(sel)
	if !ok {
		return fmt.Errorf("selector %s: %w", sel, selector.ErrSelectorNotFound)
	}
	if err := r.table.Update(sel, facet); err != nil {
		return err
	}
	r.detach(sel, old)
	r.attach(sel, facet)

	return nil
}

// Remove unregisters sel.
func (r *Registry) Remove(sel selector.Selector) error {
	old, ok := r.table.Lookup(sel)
	if !ok {
		return fmt.Errorf("selector %s: %w", sel, selector.ErrSelectorNotFound)
	}
	if err := r.table.RemoveAt(sel); err != nil {
		return err
	}
	r.detach(sel, old)

	return nil
}

func (r *Registry) attach(sel selector.Selector, facet common.Address) {
	if _, known := r.facetPos[facet]; !known {
		r.facetPos[facet] = len(r.facets)
		r.facets = append(r.facets, facet)
	}
	r.selectorPos[sel] = len(r.selectorsOf[facet])
	r.selectorsOf[facet] = append(r.selectorsOf[facet], sel)
}

func (r *Registry) detach(sel selector.Selector, facet common.Address) {
	sels := r.selectorsOf[facet]
	pos := r.selectorPos[sel]
	last := len(sels) - 1
	if pos != last {
		moved := sels[last]
		sels[pos] = moved
		r.selectorPos[moved] = pos
	}
	sels = sels[:last]
	delete(r.selectorPos, sel)

	if len(sels) > 0 {
		r.selectorsOf[facet] = sels
		return
	}

	// facet no longer backs anything
	delete(r.selectorsOf, facet)
	fpos := r.facetPos[facet]
	flast := len(r.facets) - 1
	if fpos != flast {
		moved := r.facets[flast]
		r.facets[fpos] = moved
		r.facetPos[moved] = fpos
	}
	r.facets = r.facets[:flast]
	delete(r.facetPos, facet)
}

// Facets returns every facet holding at least one selector together with its selectors.
func (r *Registry) Facets() []Facet {
	out := make([]Facet, 0, len(r.facets))
	for _, f := range r.facets {
		out = append(out, Facet{
			FacetAddress:      f,
			FunctionSelectors: r.FacetFunctionSelectors(f),
		})
	}

	return out
}

// FacetAddresses returns each distinct facet exactly once.
func (r *Registry) FacetAddresses() []common.Address {
	out := make([]common.Address, len(r.facets))
	copy(out, r.facets)

	return out
}

// FacetFunctionSelectors returns the selectors backed by facet. Unknown facets yield an empty
// slice.
func (r *Registry) FacetFunctionSelectors(facet common.Address) []selector.Selector {
	sels := r.selectorsOf[facet]
	out := make([]selector.Selector, len(sels))
	copy(out, sels)

	return out
}

// FacetAddress returns the facet backing sel.
func (r *Registry) FacetAddress(sel selector.Selector) (common.Address, bool) {
	return r.table.Lookup(sel)
}

// Table returns a copy of the underlying selector table.
func (r *Registry) Table() *selector.Table {
	return r.table.Clone()
}

// Len returns the number of registered selectors.
func (r *Registry) Len() int {
	return r.table.Len()
}

// Selectors returns the table's selector sequence.
func (r *Registry) Selectors() []selector.Selector {
	return r.table.Selectors()
}

// Entries returns the table entries in sequence order.
func (r *Registry) Entries() []selector.Entry {
	return r.table.Entries()
}

// Clone returns a deep copy.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		table:       r.table.Clone(),
		facets:      make([]common.Address, len(r.facets)),
		facetPos:    make(map[common.Address]int, len(r.facetPos)),
		selectorsOf: make(map[common.Address][]selector.Selector, len(r.selectorsOf)),
		selectorPos: make(map[selector.Selector]int, len(r.selectorPos)),
	}
	copy(c.facets, r.facets)
	for k, v := range r.facetPos {
		c.facetPos[k] = v
	}
	for k, v := range r.selectorsOf {
		sels := make([]selector.Selector, len(v))
		copy(sels, v)
		c.selectorsOf[k] = sels
	}
	for k, v := range r.selectorPos {
		c.selectorPos[k] = v
	}

	return c
}

// Verify checks the table invariants and that the facet index matches a fresh scan of the
// table.
func (r *Registry) Verify() error {
	if err := r.table.Verify(); err != nil {
		return err
	}

	scanned := make(map[common.Address]map[selector.Selector]struct{})
	for _, e := range r.table.Entries() {
		if scanned[e.Facet] == nil {
			scanned[e.Facet] = make(map[selector.Selector]struct{})
		}
		scanned[e.Facet][e.Selector] = struct{}{}
	}

	if len(scanned) != len(r.facets) || len(r.facets) != len(r.facetPos) {
		return fmt.Errorf("table has %d facets, index has %d: %w", len(scanned), len(r.facets), ErrIndexCorrupt)
	}
	for i, f := range r.facets {
		if r.facetPos[f] != i {
			return fmt.Errorf("facet %s recorded at %d, found at %d: %w", f, r.facetPos[f], i, ErrIndexCorrupt)
		}
		want := scanned[f]
		got := r.selectorsOf[f]
		if len(want) != len(got) {
			return fmt.Errorf("facet %s backs %d selectors in table, %d in index: %w", f, len(want), len(got), ErrIndexCorrupt)
		}
		for j, sel := range got {
			if _, ok := want[sel]; !ok {
				return fmt.Errorf("facet %s lists %s which the table maps elsewhere: %w", f, sel, ErrIndexCorrupt)
			}
			if r.selectorPos[sel] != j {
				return fmt.Errorf("selector %s recorded at %d in facet %s, found at %d: %w", sel, r.selectorPos[sel], f, j, ErrIndexCorrupt)
			}
		}
	}

	return nil
}
