package cut

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	fcut "github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/diamond"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/manifest"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/flags"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/commands/text"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

var (
	planShort = "Apply cut manifests to an in-process diamond and print the result"

	planLong = text.LongDesc(`
		Bootstraps a diamond from the first manifest, then applies every following manifest as a
		diamondCut call by the owner. Prints the change records and the resulting loupe.

		The owner is taken from the first manifest, or from the config when the manifest has none.
		With --persist the change records are also written to the configured audit database.
		With --out the resulting function table is written back as a manifest, in YAML or TOML
		depending on the file extension.
	`)

	planExample = text.Examples(`
		# Plan a bootstrap
		diamondctl cut plan -m bootstrap.yaml

		# Plan an upgrade on top of it and snapshot the resulting table
		diamondctl cut plan -m bootstrap.yaml -m upgrade.toml --out snapshot.yaml

		# Record the change history in the audit database from diamond.yaml
		diamondctl cut plan -c diamond.yaml -m bootstrap.yaml --persist
	`)
)

type planFlags struct {
	config    string
	manifests []string
	out       string
	persist   bool
}

func newPlanCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan",
		Short:   planShort,
		Long:    planLong,
		Example: planExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := planFlags{
				config:    flags.MustString(cmd.Flags().GetString("config")),
				manifests: flags.MustStringSlice(cmd.Flags().GetStringSlice("manifest")),
				out:       flags.MustString(cmd.Flags().GetString("out")),
				persist:   flags.MustBool(cmd.Flags().GetBool("persist")),
			}

			return runPlan(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Config(cmd)
	flags.Output(cmd, "")

	// Local flags specific to this command
	cmd.Flags().StringSliceP("manifest", "m", nil, "Cut manifest, repeatable; the first bootstraps the diamond (required)")
	cmd.Flags().Bool("persist", false, "Write change records to the configured audit database")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runPlan(cmd *cobra.Command, cfg Config, f planFlags) error {
	deps := cfg.deps()

	conf, err := deps.ConfigLoader(f.config)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", f.config, err)
	}
	catalog, err := deps.CatalogLoader()
	if err != nil {
		return fmt.Errorf("failed to load facet catalog: %w", err)
	}

	manifests := make([]*manifest.Manifest, len(f.manifests))
	for i, path := range f.manifests {
		m, err := deps.ManifestLoader(path)
		if err != nil {
			return fmt.Errorf("failed to load manifest %s: %w", path, err)
		}
		manifests[i] = m
	}

	owner, err := manifests[0].OwnerAddress()
	if err != nil {
		return err
	}
	if owner == (common.Address{}) {
		if owner, err = conf.OwnerAddress(); err != nil {
			return err
		}
	}

	records := fcut.NewMemorySink()
	opts := []diamond.Option{
		diamond.WithLogger(cfg.Logger),
		diamond.WithSink(records),
	}
	addr, err := conf.DiamondAddress()
	if err != nil {
		return err
	}
	if addr != (common.Address{}) {
		opts = append(opts, diamond.WithAddress(addr))
	}

	if f.persist {
		if !conf.AuditEnabled() {
			return fmt.Errorf("--persist needs an audit driver in %s", f.config)
		}
		store, err := deps.RecordStoreOpener(conf.Audit, cfg.Logger)
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer func() { _ = store.Close() }()
		if err := store.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("failed to migrate audit store: %w", err)
		}
		opts = append(opts, diamond.WithSink(store))
	}

	bootstrap, err := manifests[0].Resolve(catalog)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", f.manifests[0], err)
	}
	d, err := diamond.New(owner, catalog, bootstrap, opts...)
	if err != nil {
		return fmt.Errorf("bootstrap %s: %w", f.manifests[0], err)
	}

	for i, m := range manifests[1:] {
		path := f.manifests[i+1]
		req, err := m.Resolve(catalog)
		if err != nil {
			return fmt.Errorf("manifest %s: %w", path, err)
		}
		if err := d.DiamondCut(owner, req); err != nil {
			return fmt.Errorf("cut %s: %w", path, err)
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Diamond %s owned by %s\n\n", d.Address().Hex(), d.Owner().Hex())
	writeRecords(w, records.Records())
	fmt.Fprintln(w)
	writeLoupe(w, catalog, d)

	if f.out != "" {
		if err := writeSnapshot(f.out, catalog, d); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n✅ Wrote function table to %s\n", f.out)
	}

	return nil
}

func writeRecords(w io.Writer, records []fcut.Record) {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.ID,
			r.Caller.Hex(),
			strings.Join(r.Request().Summary(), "\n"),
		})
	}
	writeTable(w, []string{"#", "Record", "Caller", "Changes"}, rows)
}

type signer interface {
	Signature(sel selector.Selector) (string, bool)
}

func writeLoupe(w io.Writer, catalog *facet.Catalog, d *diamond.Diamond) {
	var rows [][]string
	for _, fc := range d.Facets() {
		name := "diamond"
		var sigs signer
		if e, ok := catalog.Entry(fc.FacetAddress); ok {
			name = e.Ref()
			sigs, _ = e.Logic.(signer)
		}
		for _, sel := range fc.FunctionSelectors {
			sig := ""
			if sigs != nil {
				sig, _ = sigs.Signature(sel)
			}
			rows = append(rows, []string{fc.FacetAddress.Hex(), name, sel.String(), sig})
		}
	}
	writeTable(w, []string{"Facet", "Name", "Selector", "Signature"}, rows)
}

// writeSnapshot writes the diamond's catalog facets as a single bootstrap manifest.
func writeSnapshot(path string, catalog *facet.Catalog, d *diamond.Diamond) error {
	var req fcut.Request
	for _, fc := range d.Facets() {
		if fc.FacetAddress == d.Address() {
			continue
		}
		req.Cuts = append(req.Cuts, fcut.FacetCut{
			FacetAddress:      fc.FacetAddress,
			Action:            fcut.Add,
			FunctionSelectors: fc.FunctionSelectors,
		})
	}

	b, err := manifest.FromRequest(catalog, d.Owner(), req).Encode(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})
	table.AppendBulk(rows)
	table.Render()
}
