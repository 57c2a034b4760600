// Package main is diamondctl, a CLI for planning diamond cuts against the built-in facet catalog.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-diamond-framework/config"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/text"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	lggr, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = lggr.Sync() }()

	root, err := newRootCmd(lggr)
	if err != nil {
		return err
	}
	root.SetArgs(args)

	return root.ExecuteContext(ctx)
}

// newLogger builds the logger from the environment only, since the config file path is a
// per-command flag.
func newLogger() (logger.Logger, error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	lvl, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}

	return (&logger.Config{Level: lvl}).New()
}

func newRootCmd(lggr logger.Logger) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:   "diamondctl",
		Short: "Plan and inspect diamond cuts",
		Long: text.LongDesc(`
			diamondctl computes selectors and interface IDs, checks shared storage schema
			upgrades, and dry-runs cut manifests against an in-process diamond.
		`),
		SilenceUsage: true,
	}

	cmds, err := commands.New(lggr).All()
	if err != nil {
		return nil, err
	}
	root.AddCommand(cmds...)

	return root, nil
}
