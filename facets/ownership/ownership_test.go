package ownership

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-diamond-framework/diamond"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/internal/abiutil"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestSelectors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, selector.FromSignatures("owner()", "transferOwnership(address)"), New().Selectors())
	assert.Equal(t, "0x7f5828d0", selector.InterfaceID(New().Selectors()...).String())
}

func TestTransferOwnership(t *testing.T) {
	t.Parallel()

	s := state.NewStore()
	diamond.SetContractOwner(s, alice)
	f := New()

	owner := func() common.Address {
		t.Helper()
		out, err := f.Invoke(&facet.Call{Selector: selector.FromSignature("owner()"), Storage: s})
		require.NoError(t, err)
		addr, err := DecodeOwner(out)
		require.NoError(t, err)

		return addr
	}
	transfer := func(caller, to common.Address) error {
		input, err := abiutil.PackInputs(ABI, "transferOwnership", to)
		require.NoError(t, err)
		_, err = f.Invoke(&facet.Call{
			Caller:   caller,
			Selector: selector.FromSignature("transferOwnership(address)"),
			Input:    input,
			Storage:  s,
		})

		return err
	}

	assert.Equal(t, alice, owner())

	var rerr *facet.RevertError
	require.ErrorAs(t, transfer(bob, bob), &rerr)
	assert.Equal(t, "LibDiamond: Must be contract owner", rerr.Reason)
	assert.Equal(t, alice, owner())

	require.NoError(t, transfer(alice, bob))
	assert.Equal(t, bob, owner())
	assert.Equal(t, bob, diamond.ContractOwner(s))
}

func TestTransferOwnership_BadInput(t *testing.T) {
	t.Parallel()

	s := state.NewStore()
	diamond.SetContractOwner(s, alice)
	_, err := New().Invoke(&facet.Call{
		Caller:   alice,
		Selector: selector.FromSignature("transferOwnership(address)"),
		Input:    []byte{0x01},
		Storage:  s,
	})
	require.ErrorContains(t, err, "decode transferOwnership input")
}
