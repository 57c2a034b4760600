package counter

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-diamond-framework/diamond"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func invoke(t *testing.T, f *Facet, s state.Storage, caller common.Address, method string, args ...any) ([]byte, error) {
	t.Helper()

	return f.Invoke(&facet.Call{
		Caller:   caller,
		Selector: [4]byte(ABI.Methods[method].ID),
		Input:    PackCall(method, args...),
		Storage:  s,
	})
}

func TestCounter(t *testing.T) {
	t.Parallel()

	s := state.NewStore()
	f := New()
	require.NoError(t, f.Initialize(&facet.Call{Storage: s, Input: PackInit(big.NewInt(100))}))

	_, err := invoke(t, f, s, alice, "increment", big.NewInt(2))
	require.NoError(t, err)
	out, err := invoke(t, f, s, bob, "increment", big.NewInt(3))
	require.NoError(t, err)
	total, err := DecodeUint("increment", out)
	require.NoError(t, err)
	assert.Equal(t, int64(105), total.Int64())

	out, err = invoke(t, f, s, bob, "countOf", alice)
	require.NoError(t, err)
	count, err := DecodeUint("countOf", out)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Int64())

	out, err = invoke(t, f, s, bob, "lastCaller")
	require.NoError(t, err)
	vals, err := ABI.Unpack("lastCaller", out)
	require.NoError(t, err)
	assert.Equal(t, bob, vals[0])

	// tallies live in the namespaced region, the total in AppStorage
	regions := s.Regions()
	assert.Contains(t, regions, state.Namespace(Namespace))
	assert.Contains(t, regions, AppStorage.RegionID())
}

func TestInitialize_RejectsForeignCalldata(t *testing.T) {
	t.Parallel()

	err := New().Initialize(&facet.Call{Storage: state.NewStore(), Input: []byte{0xde, 0xad, 0xbe, 0xef}})
	var rerr *facet.RevertError
	require.ErrorAs(t, err, &rerr)
}

func TestV2_Pausing(t *testing.T) {
	t.Parallel()

	s := state.NewStore()
	diamond.SetContractOwner(s, alice)
	require.NoError(t, New().Initialize(&facet.Call{Storage: s}))

	v2 := NewV2()
	require.NoError(t, v2.Initialize(&facet.Call{Storage: s}))

	_, err := invoke(t, v2, s, bob, "setPaused", true)
	require.Error(t, err, "only the owner pauses")

	_, err = invoke(t, v2, s, alice, "setPaused", true)
	require.NoError(t, err)
	out, err := invoke(t, v2, s, bob, "paused")
	require.NoError(t, err)
	vals, err := ABI.Unpack("paused", out)
	require.NoError(t, err)
	assert.Equal(t, true, vals[0])

	_, err = invoke(t, v2, s, bob, "increment", big.NewInt(1))
	require.ErrorContains(t, err, "paused")

	// v1 still binds after the upgrade and ignores the flag it does not know about
	_, err = invoke(t, New(), s, bob, "increment", big.NewInt(1))
	require.NoError(t, err)
}

func TestSchemaConflictIsRejected(t *testing.T) {
	t.Parallel()

	s := state.NewStore()
	require.NoError(t, New().Initialize(&facet.Call{Storage: s}))

	reordered := &Facet{Mux: facet.NewMux(), schema: state.Schema{
		Name:   AppStorage.Name,
		Fields: []state.Field{AppStorage.Fields[1], AppStorage.Fields[0]},
	}}
	require.ErrorIs(t, reordered.Initialize(&facet.Call{Storage: s}), state.ErrSchemaFieldReordered)
}
