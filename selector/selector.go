// Package selector defines function selectors and the selector table that maps each selector
// to the facet currently backing it.
package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Length is the width of a selector in bytes.
const Length = 4

var ErrInvalidSelector = errors.New("invalid selector")

// Selector uniquely names one callable function of a diamond. It is the first four bytes of the
// keccak256 hash of the canonical function signature, e.g. "transfer(address,uint256)".
type Selector [Length]byte

// FromSignature derives the selector of a canonical function signature.
func FromSignature(sig string) Selector {
	var s Selector
	copy(s[:], crypto.Keccak256([]byte(sig))[:Length])

	return s
}

// FromBytes returns the selector held in the first four bytes of b.
func FromBytes(b []byte) (Selector, error) {
	var s Selector
	if len(b) < Length {
		return s, fmt.Errorf("need %d bytes, got %d: %w", Length, len(b), ErrInvalidSelector)
	}
	copy(s[:], b[:Length])

	return s, nil
}

// Parse parses a 0x-prefixed hex selector.
func Parse(s string) (Selector, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return Selector{}, fmt.Errorf("%q: %w", s, errors.Join(ErrInvalidSelector, err))
	}
	if len(b) != Length {
		return Selector{}, fmt.Errorf("%q has %d bytes: %w", s, len(b), ErrInvalidSelector)
	}

	return Selector(b), nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Selector {
	sel, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return sel
}

// ParseOrSignature accepts either a hex selector or a function signature.
func ParseOrSignature(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return Parse(s)
	}
	if !strings.Contains(s, "(") || !strings.HasSuffix(s, ")") {
		return Selector{}, fmt.Errorf("%q is neither a hex selector nor a signature: %w", s, ErrInvalidSelector)
	}

	return FromSignature(s), nil
}

// String returns the 0x-prefixed hex form.
func (s Selector) String() string {
	return hexutil.Encode(s[:])
}

// Bytes returns a copy of the selector bytes.
func (s Selector) Bytes() []byte {
	return append([]byte(nil), s[:]...)
}

// IsZero reports whether s is the zero selector.
func (s Selector) IsZero() bool {
	return s == Selector{}
}

// MarshalText implements encoding.TextMarshaler.
func (s Selector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Selector) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed

	return nil
}

// InterfaceID computes the ERC-165 interface identifier of a set of selectors (their XOR).
func InterfaceID(sels ...Selector) Selector {
	var id Selector
	for _, s := range sels {
		for i := range id {
			id[i] ^= s[i]
		}
	}

	return id
}

// FromSignatures derives the selectors for each signature, in order.
func FromSignatures(sigs ...string) []Selector {
	out := make([]Selector, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, FromSignature(sig))
	}

	return out
}
