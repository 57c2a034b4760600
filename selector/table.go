package selector

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrSelectorExists   = errors.New("selector already exists in table")
	ErrSelectorNotFound = errors.New("selector not found in table")
	ErrTableCorrupt     = errors.New("selector table invariant violated")
)

// Entry records which facet backs a selector and where the selector sits in the table's
// sequence.
type Entry struct {
	Selector Selector       `json:"selector"`
	Facet    common.Address `json:"facet"`
	Position int            `json:"position"`
}

// Table maps selectors to the facets backing them.
//
// Selectors are kept in a single flat sequence alongside the map so removal is O(1): the last
// selector is moved into the freed position. The relative order of the remaining selectors is
// therefore NOT stable across removals; callers must not rely on enumeration order.
//
// Table is not safe for concurrent use; the owning registry serialises access.
type Table struct {
	sequence []Selector
	entries  map[Selector]Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[Selector]Entry),
	}
}

// Lookup returns the facet backing sel.
func (t *Table) Lookup(sel Selector) (common.Address, bool) {
	e, ok := t.entries[sel]

	return e.Facet, ok
}

// Entry returns the full entry for sel.
func (t *Table) Entry(sel Selector) (Entry, bool) {
	e, ok := t.entries[sel]

	return e, ok
}

// Insert appends sel to the sequence, backed by facet.
func (t *Table) Insert(sel Selector, facet common.Address) error {
	if _, exists := t.entries[sel]; exists {
		return fmt.Errorf("selector %s: %w", sel, ErrSelectorExists)
	}

	t.entries[sel] = Entry{Selector: sel, Facet: facet, Position: len(t.sequence)}
	t.sequence = append(t.sequence, sel)

	return nil
}

// Update points an existing selector at a different facet. Its position is unchanged.
func (t *Table) Update(sel Selector, facet common.Address) error {
	e, exists := t.entries[sel]
	if !exists {
		return fmt.Errorf("selector %s: %w", sel, ErrSelectorNotFound)
	}

	e.Facet = facet
	t.entries[sel] = e

	return nil
}

// RemoveAt removes sel, relocating the last selector of the sequence into its position.
func (t *Table) RemoveAt(sel Selector) error {
	e, exists := t.entries[sel]
	if !exists {
		return fmt.Errorf("selector %s: %w", sel, ErrSelectorNotFound)
	}

	last := len(t.sequence) - 1
	if e.Position != last {
		moved := t.sequence[last]
		t.sequence[e.Position] = moved
		me := t.entries[moved]
		me.Position = e.Position
		t.entries[moved] = me
	}
	t.sequence = t.sequence[:last]
	delete(t.entries, sel)

	return nil
}

// Len returns the number of registered selectors.
func (t *Table) Len() int {
	return len(t.sequence)
}

// Selectors returns a copy of the selector sequence.
func (t *Table) Selectors() []Selector {
	out := make([]Selector, len(t.sequence))
	copy(out, t.sequence)

	return out
}

// Entries returns the entries in sequence order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.sequence))
	for _, sel := range t.sequence {
		out = append(out, t.entries[sel])
	}

	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		sequence: make([]Selector, len(t.sequence)),
		entries:  make(map[Selector]Entry, len(t.entries)),
	}
	copy(c.sequence, t.sequence)
	for k, v := range t.entries {
		c.entries[k] = v
	}

	return c
}

// Verify checks that every entry sits at its recorded position and that the sequence has no
// selector without an entry.
func (t *Table) Verify() error {
	if len(t.sequence) != len(t.entries) {
		return fmt.Errorf("sequence has %d selectors, map has %d: %w",
			len(t.sequence), len(t.entries), ErrTableCorrupt)
	}
	for i, sel := range t.sequence {
		e, ok := t.entries[sel]
		if !ok {
			return fmt.Errorf("selector %s at %d has no entry: %w", sel, i, ErrTableCorrupt)
		}
		if e.Position != i || e.Selector != sel {
			return fmt.Errorf("selector %s recorded at %d, found at %d: %w", sel, e.Position, i, ErrTableCorrupt)
		}
	}

	return nil
}
