// Package abi provides CLI commands for computing function selectors and interface IDs.
package abi

import (
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets"
)

// CatalogLoaderFunc returns the facet catalog used to annotate selectors with signatures.
type CatalogLoaderFunc func() (*facet.Catalog, error)

// Deps holds the injectable dependencies for abi commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// CatalogLoader returns the facet catalog.
	// Default: facets.NewCatalog
	CatalogLoader CatalogLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.CatalogLoader == nil {
		d.CatalogLoader = facets.NewCatalog
	}
}
