// Package state holds a diamond's persistent storage.
//
// Storage is partitioned into regions. A region is either namespaced (its slot is the keccak256
// hash of a unique string chosen by the facet author) or schema-bound (a single shared layout
// that every facet declares identically and only ever extends by appending fields). Regions are
// addressed by kind and slot together, so the two strategies can be mixed across facets without
// two region identifiers ever aliasing the same storage.
//
// Facets never own storage. They receive a Storage for the duration of one call; the diamond
// hands them a transaction so that a failed call leaves no trace.
package state

import (
	"bytes"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrTxClosed       = errors.New("transaction already committed or discarded")
	ErrTxHasOpenChild = errors.New("transaction has an open child transaction")
)

// Storage is read/write access to a diamond's regions.
type Storage interface {
	// Load returns the value stored under key in region. Missing values report false.
	Load(region RegionID, key common.Hash) ([]byte, bool)
	// Store writes value under key in region. Storing an empty value deletes the key.
	Store(region RegionID, key common.Hash, value []byte)
	// Delete removes key from region.
	Delete(region RegionID, key common.Hash)
}

// Store is the committed state of a diamond. Regions are created lazily on first write.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	regions map[RegionID]map[common.Hash][]byte
}

var _ Storage = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		regions: make(map[RegionID]map[common.Hash][]byte),
	}
}

// Load implements Storage.
func (s *Store) Load(region RegionID, key common.Hash) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.regions[region][key]
	if !ok {
		return nil, false
	}

	return bytes.Clone(v), true
}

// Store implements Storage.
func (s *Store) Store(region RegionID, key common.Hash, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.storeUnsafe(region, key, value)
}

// Delete implements Storage.
func (s *Store) Delete(region RegionID, key common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteUnsafe(region, key)
}

func (s *Store) storeUnsafe(region RegionID, key common.Hash, value []byte) {
	if len(value) == 0 {
		s.deleteUnsafe(region, key)
		return
	}
	r, ok := s.regions[region]
	if !ok {
		r = make(map[common.Hash][]byte)
		s.regions[region] = r
	}
	r[key] = bytes.Clone(value)
}

func (s *Store) deleteUnsafe(region RegionID, key common.Hash) {
	r, ok := s.regions[region]
	if !ok {
		return
	}
	delete(r, key)
	if len(r) == 0 {
		delete(s.regions, region)
	}
}

// Regions returns the identifiers of every region holding at least one value.
func (s *Store) Regions() []RegionID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RegionID, 0, len(s.regions))
	for id := range s.regions {
		out = append(out, id)
	}

	return out
}

// Dump returns a deep copy of every region.
func (s *Store) Dump() map[RegionID]map[common.Hash][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[RegionID]map[common.Hash][]byte, len(s.regions))
	for id, r := range s.regions {
		c := make(map[common.Hash][]byte, len(r))
		for k, v := range r {
			c[k] = bytes.Clone(v)
		}
		out[id] = c
	}

	return out
}

// Begin starts a transaction over the store.
func (s *Store) Begin() *Tx {
	return newTx(s, nil)
}

// apply writes a transaction's buffered changes under a single lock.
func (s *Store) apply(writes map[RegionID]map[common.Hash]write) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for region, keys := range writes {
		for key, w := range keys {
			if w.deleted {
				s.deleteUnsafe(region, key)
				continue
			}
			s.storeUnsafe(region, key, w.value)
		}
	}
}
