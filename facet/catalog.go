package facet

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidAddress = errors.New("invalid facet address")
	ErrInvalidName    = errors.New("invalid facet name")
	ErrNilLogic       = errors.New("facet logic is nil")
	ErrAlreadyExists  = errors.New("facet logic already installed at address")
	ErrNotFound       = errors.New("facet not found in catalog")
)

// Entry is installed facet logic and the name and version it was installed under.
type Entry struct {
	Address common.Address
	Name    string
	Version semver.Version
	Logic   Logic
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s", e.Name, e.Version.String())
}

// Ref is the "name@version" form of the entry.
func (e Entry) Ref() string {
	return e.Name + "@" + e.Version.String()
}

// ContentAddress derives the deterministic address facet logic is installed at: the last 20
// bytes of keccak256("name@version").
func ContentAddress(name string, v *semver.Version) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(name + "@" + v.String()))[12:])
}

// Catalog is the set of facet logic available to diamonds, keyed by address.
// All methods return results in address order.
type Catalog struct {
	// Use TreeMap to maintain sorted order automatically
	byAddress *treemap.Map // map[string]Entry, keyed by EIP55 address
	mtx       sync.RWMutex
}

var _ Resolver = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{byAddress: treemap.NewWithStringComparator()}
}

// Install adds logic under name and version at its content address and returns that address.
func (c *Catalog) Install(name, version string, logic Logic) (common.Address, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return common.Address{}, fmt.Errorf("facet %s version %q: %w", name, version, err)
	}
	addr := ContentAddress(name, v)

	c.mtx.Lock()
	defer c.mtx.Unlock()

	return addr, c.install(addr, name, *v, logic)
}

// InstallAt adds logic at an explicit address.
func (c *Catalog) InstallAt(addr common.Address, name, version string, logic Logic) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("facet %s version %q: %w", name, version, err)
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.install(addr, name, *v, logic)
}

// MustInstall is like Install but panics on error.
func (c *Catalog) MustInstall(name, version string, logic Logic) common.Address {
	addr, err := c.Install(name, version, logic)
	if err != nil {
		panic(err)
	}

	return addr
}

func (c *Catalog) install(addr common.Address, name string, v semver.Version, logic Logic) error {
	if addr == (common.Address{}) {
		return fmt.Errorf("facet %s: %w", name, ErrInvalidAddress)
	}
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "@ ") {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if logic == nil {
		return fmt.Errorf("facet %s: %w", name, ErrNilLogic)
	}
	if existing, ok := c.byAddress.Get(addr.Hex()); ok {
		return fmt.Errorf("%s (installed as %s): %w", addr.Hex(), existing.(Entry), ErrAlreadyExists)
	}
	c.byAddress.Put(addr.Hex(), Entry{Address: addr, Name: name, Version: v, Logic: logic})

	return nil
}

// Resolve implements Resolver.
func (c *Catalog) Resolve(addr common.Address) (Logic, bool) {
	e, ok := c.Entry(addr)
	if !ok {
		return nil, false
	}

	return e.Logic, true
}

// Entry returns the entry installed at addr.
func (c *Catalog) Entry(addr common.Address) (Entry, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	v, ok := c.byAddress.Get(addr.Hex())
	if !ok {
		return Entry{}, false
	}

	return v.(Entry), true
}

// Entries returns every installed entry.
func (c *Catalog) Entries() []Entry {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	out := make([]Entry, 0, c.byAddress.Size())
	it := c.byAddress.Iterator()
	for it.Next() {
		out = append(out, it.Value().(Entry))
	}

	return out
}

// Lookup resolves a facet reference: a hex address, "name@version" for an exact version, or
// a bare name for the highest installed version.
func (c *Catalog) Lookup(ref string) (Entry, error) {
	ref = strings.TrimSpace(ref)
	if common.IsHexAddress(ref) {
		e, ok := c.Entry(common.HexToAddress(ref))
		if !ok {
			return Entry{}, fmt.Errorf("%s: %w", ref, ErrNotFound)
		}

		return e, nil
	}

	name, version, exact := strings.Cut(ref, "@")
	var want *semver.Version
	if exact {
		v, err := semver.NewVersion(version)
		if err != nil {
			return Entry{}, fmt.Errorf("facet ref %q: %w", ref, err)
		}
		want = v
	}

	var (
		best  Entry
		found bool
	)
	for _, e := range c.Entries() {
		if e.Name != name {
			continue
		}
		if want != nil {
			if e.Version.Equal(want) {
				return e, nil
			}
			continue
		}
		if !found || e.Version.GreaterThan(&best.Version) {
			best, found = e, true
		}
	}
	if !found {
		return Entry{}, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}

	return best, nil
}
