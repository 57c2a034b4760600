package state

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

type write struct {
	value   []byte
	deleted bool
}

// Tx buffers writes on top of a Store or a parent Tx. Reads see the transaction's own writes
// first. Nothing reaches the parent until Commit; Discard drops everything.
//
// A Tx is not safe for concurrent use.
type Tx struct {
	store  *Store
	parent *Tx
	writes map[RegionID]map[common.Hash]write
	child  *Tx
	closed bool
}

var _ Storage = (*Tx)(nil)

func newTx(store *Store, parent *Tx) *Tx {
	return &Tx{
		store:  store,
		parent: parent,
		writes: make(map[RegionID]map[common.Hash]write),
	}
}

// Begin starts a nested transaction whose commit lands in t.
func (t *Tx) Begin() *Tx {
	child := newTx(t.store, t)
	t.child = child

	return child
}

// Load implements Storage.
func (t *Tx) Load(region RegionID, key common.Hash) ([]byte, bool) {
	if w, ok := t.writes[region][key]; ok {
		if w.deleted {
			return nil, false
		}

		return bytes.Clone(w.value), true
	}
	if t.parent != nil {
		return t.parent.Load(region, key)
	}

	return t.store.Load(region, key)
}

// Store implements Storage.
func (t *Tx) Store(region RegionID, key common.Hash, value []byte) {
	if len(value) == 0 {
		t.Delete(region, key)
		return
	}
	t.set(region, key, write{value: bytes.Clone(value)})
}

// Delete implements Storage.
func (t *Tx) Delete(region RegionID, key common.Hash) {
	t.set(region, key, write{deleted: true})
}

func (t *Tx) set(region RegionID, key common.Hash, w write) {
	if t.closed {
		// a facet kept its Storage past the end of its call
		panic(ErrTxClosed)
	}
	r, ok := t.writes[region]
	if !ok {
		r = make(map[common.Hash]write)
		t.writes[region] = r
	}
	r[key] = w
}

// Dirty reports whether the transaction has buffered any write.
func (t *Tx) Dirty() bool {
	return len(t.writes) > 0
}

// Commit publishes the buffered writes to the parent transaction, or to the store for a root
// transaction.
func (t *Tx) Commit() error {
	if t.closed {
		return ErrTxClosed
	}
	if t.child != nil && !t.child.closed {
		return ErrTxHasOpenChild
	}
	t.closed = true

	if t.parent == nil {
		t.store.apply(t.writes)
		return nil
	}
	for region, keys := range t.writes {
		for key, w := range keys {
			t.parent.set(region, key, w)
		}
	}

	return nil
}

// Discard drops the buffered writes. Discarding a closed transaction is a no-op.
func (t *Tx) Discard() {
	if t.closed {
		return
	}
	if t.child != nil {
		t.child.Discard()
	}
	t.closed = true
	t.writes = nil
}
