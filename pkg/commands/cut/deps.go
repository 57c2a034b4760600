// Package cut provides CLI commands for planning diamond cuts.
package cut

import (
	"context"

	"github.com/smartcontractkit/chainlink-diamond-framework/audit"
	"github.com/smartcontractkit/chainlink-diamond-framework/config"
	fcut "github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets"
	"github.com/smartcontractkit/chainlink-diamond-framework/manifest"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
)

// RecordStore is a change record sink backed by durable storage.
type RecordStore interface {
	fcut.Sink
	Migrate(ctx context.Context) error
	Close() error
}

// ConfigLoaderFunc loads the diamondctl configuration.
type ConfigLoaderFunc func(path string) (*config.Config, error)

// ManifestLoaderFunc loads a cut manifest.
type ManifestLoaderFunc func(path string) (*manifest.Manifest, error)

// CatalogLoaderFunc returns the facet catalog manifests resolve against.
type CatalogLoaderFunc func() (*facet.Catalog, error)

// RecordStoreOpenerFunc opens the audit record store.
type RecordStoreOpenerFunc func(cfg audit.Config, lggr logger.Logger) (RecordStore, error)

func defaultRecordStoreOpener(cfg audit.Config, lggr logger.Logger) (RecordStore, error) {
	return audit.Open(cfg, lggr)
}

// Deps holds the injectable dependencies for cut commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the configuration file.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// ManifestLoader loads a cut manifest.
	// Default: manifest.Load
	ManifestLoader ManifestLoaderFunc

	// CatalogLoader returns the facet catalog.
	// Default: facets.NewCatalog
	CatalogLoader CatalogLoaderFunc

	// RecordStoreOpener opens the audit store when records are persisted.
	// Default: audit.Open
	RecordStoreOpener RecordStoreOpenerFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.ManifestLoader == nil {
		d.ManifestLoader = manifest.Load
	}
	if d.CatalogLoader == nil {
		d.CatalogLoader = facets.NewCatalog
	}
	if d.RecordStoreOpener == nil {
		d.RecordStoreOpener = defaultRecordStoreOpener
	}
}
