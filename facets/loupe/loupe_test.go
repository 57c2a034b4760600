package loupe_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/diamond"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets/loupe"
	"github.com/smartcontractkit/chainlink-diamond-framework/registry"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

func TestInterfaceIDs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0x48e2b093", loupe.IDiamondLoupe.String())
	assert.Equal(t, "0x01ffc9a7", loupe.IERC165.String())
	assert.Equal(t, "0x7f5828d0", loupe.IERC173.String())
	assert.Equal(t, "0x1f931c1c", loupe.IDiamondCut.String())
}

func TestLoupeOverABI(t *testing.T) {
	t.Parallel()

	catalog := facets.MustNewCatalog()
	cutEntry, err := catalog.Lookup("diamondcut")
	require.NoError(t, err)
	loupeEntry, err := catalog.Lookup("loupe")
	require.NoError(t, err)

	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	loupeSels := loupe.New().Selectors()
	d, err := diamond.New(owner, catalog, cut.Request{
		Cuts: []cut.FacetCut{
			{FacetAddress: cutEntry.Address, Action: cut.Add, FunctionSelectors: []selector.Selector{cut.DiamondCutSelector}},
			{FacetAddress: loupeEntry.Address, Action: cut.Add, FunctionSelectors: loupeSels},
		},
		Init: cut.Init{Facet: loupeEntry.Address},
	})
	require.NoError(t, err)

	call := func(method string, args ...any) []byte {
		t.Helper()
		m := loupe.ABI.Methods[method]
		input, err := m.Inputs.Pack(args...)
		require.NoError(t, err)
		out, err := d.Fallback(owner, append(append([]byte{}, m.ID...), input...))
		require.NoError(t, err)

		return out
	}

	gotFacets, err := loupe.DecodeFacets(call("facets"))
	require.NoError(t, err)
	assert.Equal(t, []registry.Facet{
		{FacetAddress: cutEntry.Address, FunctionSelectors: []selector.Selector{cut.DiamondCutSelector}},
		{FacetAddress: loupeEntry.Address, FunctionSelectors: loupeSels},
	}, gotFacets)
	assert.Equal(t, d.Facets(), gotFacets)

	addrs, err := loupe.DecodeAddresses(call("facetAddresses"))
	require.NoError(t, err)
	assert.Equal(t, d.FacetAddresses(), addrs)

	sels, err := loupe.DecodeSelectors(call("facetFunctionSelectors", loupeEntry.Address))
	require.NoError(t, err)
	assert.Equal(t, loupeSels, sels)

	addr, err := loupe.DecodeAddress(call("facetAddress", [4]byte(cut.DiamondCutSelector)))
	require.NoError(t, err)
	assert.Equal(t, cutEntry.Address, addr)

	addr, err = loupe.DecodeAddress(call("facetAddress", [4]byte(selector.FromSignature("missing()"))))
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, addr)

	ok, err := loupe.DecodeBool(call("supportsInterface", [4]byte(loupe.IDiamondLoupe)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = loupe.DecodeBool(call("supportsInterface", [4]byte{0xff, 0xff, 0xff, 0xff}))
	require.NoError(t, err)
	assert.False(t, ok)
}
