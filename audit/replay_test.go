package audit_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-diamond-framework/audit"
	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/diamond"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets/diamondcut"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
	"github.com/smartcontractkit/chainlink-diamond-framework/registry"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

// Records written by a live diamond replay to the registry it ended up with, including cuts
// made from inside an init hook.
func TestSQLSink_ReplayMatchesDiamond(t *testing.T) {
	t.Parallel()

	lggr := logger.Test(t)
	sink, err := audit.Open(audit.Config{
		Driver:     audit.DriverRAMSQL,
		DSN:        strings.ReplaceAll(t.Name(), "/", "_"),
		RetryDelay: time.Millisecond,
	}, lggr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	require.NoError(t, sink.Migrate(context.Background()))

	op1 := selector.FromSignature("op1()")
	catalog := facets.MustNewCatalog()
	cutFacet, err := catalog.Lookup(diamondcut.Name)
	require.NoError(t, err)
	facet1 := catalog.MustInstall("facet1", "1.0.0", facet.NewMux().
		Handle("op1()", func(*facet.Call) ([]byte, error) { return []byte("facet1"), nil }))
	facet2 := catalog.MustInstall("facet2", "1.0.0", facet.NewMux().
		Handle("op1()", func(*facet.Call) ([]byte, error) { return []byte("facet2"), nil }))

	nested := cut.Request{Cuts: []cut.FacetCut{
		{FacetAddress: facet2, Action: cut.Replace, FunctionSelectors: []selector.Selector{op1}},
	}}
	initializer := catalog.MustInstall("upgrader", "1.0.0", facet.NewMux().
		Handle("setup()", func(call *facet.Call) ([]byte, error) {
			return nil, call.Host.DiamondCut(nested)
		}))

	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	d, err := diamond.NewWithCutFacet(owner, catalog, cutFacet.Address,
		diamond.WithLogger(lggr), diamond.WithSink(sink))
	require.NoError(t, err)

	outer := cut.Request{
		Cuts: []cut.FacetCut{{FacetAddress: facet1, Action: cut.Add, FunctionSelectors: []selector.Selector{op1}}},
		Init: cut.Init{Facet: initializer, Calldata: selector.FromSignature("setup()").Bytes()},
	}
	require.NoError(t, d.DiamondCut(owner, outer))

	out, err := d.Route(owner, op1, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("facet2"), out)

	records, err := sink.Records(context.Background(), d.Address())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, outer.Cuts, records[1].Cuts)
	assert.Equal(t, nested.Cuts, records[2].Cuts)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].Timestamp.Before(records[i-1].Timestamp), "record %d is stamped before %d", i, i-1)
	}

	engine := cut.NewEngine(d.Address(), facet.LogicChecker(catalog))
	replayed := registry.New()
	for i, r := range records {
		replayed, err = engine.Apply(replayed, r.Request(), nil)
		require.NoError(t, err, "record %d", i)
	}
	assert.Equal(t, d.Entries(), replayed.Entries())
}
