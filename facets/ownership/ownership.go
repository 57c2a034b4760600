// Package ownership is the ERC-173 facet. The owner it reports and transfers is the one the
// diamond authorises cuts against.
package ownership

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/diamond"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/internal/abiutil"
)

const (
	Name    = "ownership"
	Version = "1.0.0"
)

const abiJSON = `[
	{
		"type": "function",
		"name": "owner",
		"inputs": [],
		"outputs": [{"name": "owner_", "type": "address"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "transferOwnership",
		"inputs": [{"name": "_newOwner", "type": "address"}],
		"outputs": [],
		"stateMutability": "nonpayable"
	}
]`

// ABI is IERC173.
var ABI = abiutil.MustParse(abiJSON)

// Facet is the ownership facet.
type Facet struct {
	*facet.Mux
}

func New() *Facet {
	f := &Facet{Mux: facet.NewMux()}
	f.Handle("owner()", f.owner).
		Handle("transferOwnership(address)", f.transferOwnership)

	return f
}

func (f *Facet) owner(call *facet.Call) ([]byte, error) {
	return abiutil.PackOutputs(ABI, "owner", diamond.ContractOwner(call.Storage))
}

func (f *Facet) transferOwnership(call *facet.Call) ([]byte, error) {
	if call.Caller != diamond.ContractOwner(call.Storage) {
		return nil, facet.Revert("LibDiamond: Must be contract owner")
	}
	args, err := abiutil.UnpackInputs(ABI, "transferOwnership", call.Input)
	if err != nil {
		return nil, err
	}
	next, ok := args[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("transferOwnership: _newOwner has type %T", args[0])
	}
	diamond.SetContractOwner(call.Storage, next)

	return nil, nil
}

// DecodeOwner decodes the output of owner().
func DecodeOwner(out []byte) (common.Address, error) {
	vals, err := abiutil.UnpackOutputs(ABI, "owner", out)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("owner: output has type %T", vals[0])
	}

	return addr, nil
}
