// Package facets bundles the built-in facets into a catalog.
package facets

import (
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets/counter"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets/diamondcut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets/loupe"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets/ownership"
)

// NewCatalog returns a catalog with every built-in facet installed at its content address.
func NewCatalog() (*facet.Catalog, error) {
	c := facet.NewCatalog()
	for _, f := range []struct {
		name    string
		version string
		logic   facet.Logic
	}{
		{diamondcut.Name, diamondcut.Version, diamondcut.New()},
		{loupe.Name, loupe.Version, loupe.New()},
		{ownership.Name, ownership.Version, ownership.New()},
		{counter.Name, counter.Version, counter.New()},
		{counter.Name, counter.VersionV2, counter.NewV2()},
	} {
		if _, err := c.Install(f.name, f.version, f.logic); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on error.
func MustNewCatalog() *facet.Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(err)
	}

	return c
}
