package cut

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/text"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
)

var (
	cutShort = "Diamond cut operations"

	cutLong = text.LongDesc(`
		Commands for planning diamond cuts.

		A cut adds, replaces or removes function selectors on a diamond in one atomic batch,
		optionally followed by an initialization call. Cuts are described by YAML or TOML
		manifests that reference facets of the built-in catalog by name.
	`)
)

// Config holds the configuration for cut commands.
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
		return errors.New("cut.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates a new cut command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	cmd := &cobra.Command{
		Use:   "cut",
		Short: cutShort,
		Long:  cutLong,
	}
	cmd.AddCommand(newPlanCmd(cfg))

	return cmd, nil
}
