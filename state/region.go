package state

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Kind distinguishes the two isolation strategies.
type Kind uint8

const (
	// KindNamespaced regions are keyed by keccak256 of a unique namespace string.
	KindNamespaced Kind = iota + 1
	// KindSchema regions hold one shared, append-only schema.
	KindSchema
)

func (k Kind) String() string {
	switch k {
	case KindNamespaced:
		return "namespaced"
	case KindSchema:
		return "schema"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// RegionID identifies an isolated region of a diamond's storage.
type RegionID struct {
	Kind Kind
	Slot common.Hash
}

func (id RegionID) String() string {
	return id.Kind.String() + ":" + id.Slot.Hex()
}

// Namespace returns the region for a namespace string such as
// "diamond.standard.diamond.storage". Two facets only share a region if they pick the same
// string.
func Namespace(name string) RegionID {
	if strings.TrimSpace(name) == "" {
		panic("state: empty namespace")
	}

	return RegionID{Kind: KindNamespaced, Slot: crypto.Keccak256Hash([]byte(name))}
}

// MappingKey derives the key of a mapping entry the way Solidity does: keccak256 of the parts.
func MappingKey(parts ...[]byte) common.Hash {
	return crypto.Keccak256Hash(parts...)
}

// StringKey is a convenience key derived from a field name.
func StringKey(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

// Region is a typed view over one region of a Storage.
type Region struct {
	s  Storage
	id RegionID
}

// Open returns a view of region id in s.
func Open(s Storage, id RegionID) Region {
	return Region{s: s, id: id}
}

// ID returns the region identifier.
func (r Region) ID() RegionID {
	return r.id
}

func (r Region) Get(key common.Hash) ([]byte, bool) {
	return r.s.Load(r.id, key)
}

func (r Region) Set(key common.Hash, value []byte) {
	r.s.Store(r.id, key, value)
}

func (r Region) Delete(key common.Hash) {
	r.s.Delete(r.id, key)
}

// Big reads a big-endian unsigned integer; missing keys read as zero.
func (r Region) Big(key common.Hash) *big.Int {
	v, ok := r.Get(key)
	if !ok {
		return new(big.Int)
	}

	return new(big.Int).SetBytes(v)
}

// SetBig writes a non-negative integer. Zero deletes the key.
func (r Region) SetBig(key common.Hash, v *big.Int) {
	if v == nil || v.Sign() == 0 {
		r.Delete(key)
		return
	}
	if v.Sign() < 0 {
		panic("state: negative integers are not storable")
	}
	r.Set(key, v.Bytes())
}

// Uint64 reads an unsigned integer; missing keys read as zero.
func (r Region) Uint64(key common.Hash) uint64 {
	return r.Big(key).Uint64()
}

// SetUint64 writes v. Zero deletes the key.
func (r Region) SetUint64(key common.Hash, v uint64) {
	r.SetBig(key, new(big.Int).SetUint64(v))
}

// Address reads an address; missing keys read as the zero address.
func (r Region) Address(key common.Hash) common.Address {
	v, _ := r.Get(key)

	return common.BytesToAddress(v)
}

// SetAddress writes a. The zero address deletes the key.
func (r Region) SetAddress(key common.Hash, a common.Address) {
	if a == (common.Address{}) {
		r.Delete(key)
		return
	}
	r.Set(key, a.Bytes())
}

// Bool reads a flag; missing keys read as false.
func (r Region) Bool(key common.Hash) bool {
	v, ok := r.Get(key)

	return ok && len(v) > 0 && v[0] != 0
}

func (r Region) SetBool(key common.Hash, b bool) {
	if !b {
		r.Delete(key)
		return
	}
	r.Set(key, []byte{1})
}

// Text reads a UTF-8 string; missing keys read as empty.
func (r Region) Text(key common.Hash) string {
	v, _ := r.Get(key)

	return string(v)
}

func (r Region) SetText(key common.Hash, s string) {
	r.Set(key, []byte(s))
}
