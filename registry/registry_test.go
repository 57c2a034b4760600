package registry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

var (
	facetM = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	facetN = common.HexToAddress("0x00000000000000000000000000000000000000bb")

	opA = selector.FromSignature("opA()")
	opB = selector.FromSignature("opB()")
	opC = selector.FromSignature("opC()")
)

func TestRegistry_AddAndViews(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Add(opA, facetM))
	require.NoError(t, r.Add(opB, facetM))
	require.NoError(t, r.Add(opC, facetN))

	got, ok := r.FacetAddress(opA)
	require.True(t, ok)
	assert.Equal(t, facetM, got)
	got, ok = r.FacetAddress(opB)
	require.True(t, ok)
	assert.Equal(t, facetM, got)

	assert.ElementsMatch(t, []selector.Selector{opA, opB}, r.FacetFunctionSelectors(facetM))
	assert.Equal(t, []common.Address{facetM, facetN}, r.FacetAddresses())
	assert.Equal(t, []Facet{
		{FacetAddress: facetM, FunctionSelectors: []selector.Selector{opA, opB}},
		{FacetAddress: facetN, FunctionSelectors: []selector.Selector{opC}},
	}, r.Facets())

	require.ErrorIs(t, r.Add(opA, facetN), selector.ErrSelectorExists)
	require.NoError(t, r.Verify())
}

func TestRegistry_Remove(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Add(opA, facetM))
	require.NoError(t, r.Add(opB, facetM))

	require.NoError(t, r.Remove(opA))
	_, ok := r.FacetAddress(opA)
	assert.False(t, ok)
	assert.Equal(t, []selector.Selector{opB}, r.FacetFunctionSelectors(facetM))
	require.NoError(t, r.Verify())

	require.NoError(t, r.Remove(opB))
	assert.Empty(t, r.FacetAddresses(), "facet with no selectors is dropped")
	assert.Empty(t, r.FacetFunctionSelectors(facetM))
	require.NoError(t, r.Verify())

	require.ErrorIs(t, r.Remove(opB), selector.ErrSelectorNotFound)
}

func TestRegistry_RemoveFacetRelocatesLastFacet(t *testing.T) {
	t.Parallel()

	facetO := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	r := New()
	require.NoError(t, r.Add(opA, facetM))
	require.NoError(t, r.Add(opB, facetN))
	require.NoError(t, r.Add(opC, facetO))

	require.NoError(t, r.Remove(opA))
	assert.Equal(t, []common.Address{facetO, facetN}, r.FacetAddresses())
	require.NoError(t, r.Verify())
}

func TestRegistry_Replace(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Add(opA, facetM))
	require.NoError(t, r.Add(opB, facetM))

	require.NoError(t, r.Replace(opA, facetN))
	got, _ := r.FacetAddress(opA)
	assert.Equal(t, facetN, got)
	assert.Equal(t, []selector.Selector{opB}, r.FacetFunctionSelectors(facetM))
	assert.Equal(t, []selector.Selector{opA}, r.FacetFunctionSelectors(facetN))
	assert.Equal(t, []selector.Selector{opA, opB}, r.Selectors(), "replace keeps the table position")
	require.NoError(t, r.Verify())

	require.ErrorIs(t, r.Replace(opC, facetN), selector.ErrSelectorNotFound)
}

func TestRegistry_Clone(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Add(opA, facetM))
	before := r.Facets()

	c := r.Clone()
	require.NoError(t, c.Add(opB, facetM))
	require.NoError(t, c.Replace(opA, facetN))
	require.NoError(t, c.Verify())

	assert.Equal(t, before, r.Facets())
	assert.Equal(t, 1, r.Len())
	require.NoError(t, r.Verify())
}

func TestRegistry_VerifyDetectsDrift(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.Add(opA, facetM))
	r.selectorsOf[facetM] = append(r.selectorsOf[facetM], opB)

	require.ErrorIs(t, r.Verify(), ErrIndexCorrupt)
}
