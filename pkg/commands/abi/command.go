package abi

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/text"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

var (
	selectorShort = "Compute function selectors"

	selectorLong = text.LongDesc(`
		Computes the 4-byte selector of each function signature. Arguments that are already hex
		selectors are looked up instead. Selectors known to a built-in facet are annotated with
		the facet and the signature it registered.
	`)

	selectorExample = text.Examples(`
		# Selector of the standard diamondCut function
		diamondctl selector 'diamondCut((address,uint8,bytes4[])[],address,bytes)'

		# Which built-in facet serves 0x8da5cb5b
		diamondctl selector 0x8da5cb5b
	`)

	interfaceIDShort = "Compute an ERC-165 interface ID"

	interfaceIDLong = text.LongDesc(`
		Computes the ERC-165 interface ID of a set of functions: the XOR of their selectors.
		Arguments may be signatures or hex selectors.
	`)

	interfaceIDExample = text.Examples(`
		# The ERC-173 interface ID
		diamondctl interface-id 'owner()' 'transferOwnership(address)'
	`)
)

// Config holds the configuration for abi commands.
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
		return errors.New("abi.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewSelectorCommand creates the "selector" command.
func NewSelectorCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	return &cobra.Command{
		Use:     "selector <signature|selector>...",
		Short:   selectorShort,
		Long:    selectorLong,
		Example: selectorExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelector(cmd, cfg, args)
		},
	}, nil
}

// NewInterfaceIDCommand creates the "interface-id" command.
func NewInterfaceIDCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cobra.Command{
		Use:     "interface-id <signature|selector>...",
		Short:   interfaceIDShort,
		Long:    interfaceIDLong,
		Example: interfaceIDExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sels, err := parseAll(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), selector.InterfaceID(sels...).String())

			return nil
		},
	}, nil
}

func runSelector(cmd *cobra.Command, cfg Config, args []string) error {
	deps := cfg.deps()
	catalog, err := deps.CatalogLoader()
	if err != nil {
		return fmt.Errorf("failed to load facet catalog: %w", err)
	}

	sels, err := parseAll(args)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(sels))
	for i, sel := range sels {
		sig := args[i]
		var refs []string
		for _, e := range catalog.Entries() {
			known, ok := signatureOf(e, sel)
			if !ok {
				continue
			}
			refs = append(refs, e.Ref())
			if strings.HasPrefix(sig, "0x") {
				sig = known
			}
		}
		rows = append(rows, []string{sel.String(), sig, strings.Join(refs, ", ")})
	}
	writeTable(cmd.OutOrStdout(), []string{"Selector", "Signature", "Facets"}, rows)

	return nil
}

func parseAll(args []string) ([]selector.Selector, error) {
	sels := make([]selector.Selector, len(args))
	for i, a := range args {
		sel, err := selector.ParseOrSignature(a)
		if err != nil {
			return nil, err
		}
		sels[i] = sel
	}

	return sels, nil
}

type signer interface {
	Signature(sel selector.Selector) (string, bool)
}

func signatureOf(e facet.Entry, sel selector.Selector) (string, bool) {
	s, ok := e.Logic.(signer)
	if !ok {
		return "", false
	}

	return s.Signature(sel)
}

func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})
	table.AppendBulk(rows)
	table.Render()
}
