// Package commands provides the CLI command packages of diamondctl.
//
// There are two ways to use commands from this package:
//
// 1. Via the Commands factory (recommended for most use cases):
//
//	cmds := commands.New(lggr)
//	app.AddCommand(
//	    cmds.Selector(),
//	    cmds.InterfaceID(),
//	    cmds.Schema(),
//	    cmds.Cut(),
//	)
//
// 2. Via direct package imports (for advanced DI/testing):
//
//	import "github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/cut"
//
//	cmd, err := cut.NewCommand(cut.Config{
//	    Logger: lggr,
//	    Deps:   cut.Deps{...}, // inject fakes for testing
//	})
package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/abi"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/schema"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
// This allows setting the logger once and reusing it across all commands.
type Commands struct {
	lggr logger.Logger
}

// New creates a new Commands factory with the given logger.
// The logger will be shared across all commands created by this factory.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// Selector creates the selector command.
func (c *Commands) Selector() (*cobra.Command, error) {
	return abi.NewSelectorCommand(abi.Config{Logger: c.lggr})
}

// InterfaceID creates the interface-id command.
func (c *Commands) InterfaceID() (*cobra.Command, error) {
	return abi.NewInterfaceIDCommand(abi.Config{Logger: c.lggr})
}

// Schema creates the schema command group.
func (c *Commands) Schema() (*cobra.Command, error) {
	return schema.NewCommand(schema.Config{Logger: c.lggr})
}

// Cut creates the cut command group.
func (c *Commands) Cut() (*cobra.Command, error) {
	return cut.NewCommand(cut.Config{Logger: c.lggr})
}

// All creates every diamondctl command.
func (c *Commands) All() ([]*cobra.Command, error) {
	ctors := []func() (*cobra.Command, error){c.Selector, c.InterfaceID, c.Schema, c.Cut}
	cmds := make([]*cobra.Command, 0, len(ctors))
	for _, ctor := range ctors {
		cmd, err := ctor()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}

	return cmds, nil
}
