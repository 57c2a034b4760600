// Package schema provides CLI commands for shared storage schemas.
package schema

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/flags"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/text"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

var (
	schemaShort = "Shared storage schema operations"

	schemaLong = text.LongDesc(`
		Commands for shared storage schemas.

		Facets that share a storage region agree on its layout through a named schema. A schema
		may only grow by appending fields; existing fields keep their position and type.
	`)

	checkShort = "Check that a schema upgrade is append-only"

	checkLong = text.LongDesc(`
		Loads two YAML schema files and checks that the new one only appends fields to the old one.
	`)

	checkExample = text.Examples(`
		# Check an AppStorage upgrade
		diamondctl schema check --old appstorage.v1.yaml --new appstorage.v2.yaml
	`)
)

// SchemaLoaderFunc loads a schema from a file.
type SchemaLoaderFunc func(path string) (state.Schema, error)

// Deps holds the injectable dependencies for schema commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// SchemaLoader loads a schema file.
	// Default: state.LoadSchema
	SchemaLoader SchemaLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.SchemaLoader == nil {
		d.SchemaLoader = state.LoadSchema
	}
}

// Config holds the configuration for schema commands.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("schema.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates a new schema command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	cmd := &cobra.Command{
		Use:   "schema",
		Short: schemaShort,
		Long:  schemaLong,
	}
	cmd.AddCommand(newCheckCmd(cfg))

	return cmd, nil
}

type checkFlags struct {
	oldPath string
	newPath string
}

func newCheckCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check",
		Short:   checkShort,
		Long:    checkLong,
		Example: checkExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := checkFlags{
				oldPath: flags.MustString(cmd.Flags().GetString("old")),
				newPath: flags.MustString(cmd.Flags().GetString("new")),
			}

			return runCheck(cmd, cfg, f)
		},
	}

	cmd.Flags().String("old", "", "Current schema file (required)")
	cmd.Flags().String("new", "", "Proposed schema file (required)")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

func runCheck(cmd *cobra.Command, cfg Config, f checkFlags) error {
	deps := cfg.deps()

	prev, err := deps.SchemaLoader(f.oldPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", f.oldPath, err)
	}
	next, err := deps.SchemaLoader(f.newPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", f.newPath, err)
	}

	if err := state.CheckAppendOnly(prev, next); err != nil {
		return fmt.Errorf("schema %s is not a compatible upgrade: %w", next.Name, err)
	}

	cfg.Logger.Debugw("Schema check passed", "schema", next.Name, "fields", len(next.Fields))
	cmd.Printf("✅ %s: %d -> %d fields, append-only\n", next.Name, len(prev.Fields), len(next.Fields))

	return nil
}
