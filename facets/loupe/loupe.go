// Package loupe is the facet exposing IDiamondLoupe and ERC-165 over the Solidity ABI.
package loupe

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/internal/abiutil"
	"github.com/smartcontractkit/chainlink-diamond-framework/registry"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

const (
	Name    = "loupe"
	Version = "1.0.0"

	// ERC165Namespace holds the supported interface flags.
	ERC165Namespace = "diamond.standard.erc165.storage"
)

const abiJSON = `[
	{
		"type": "function",
		"name": "facets",
		"inputs": [],
		"outputs": [{
			"name": "facets_",
			"type": "tuple[]",
			"components": [
				{"name": "facetAddress", "type": "address"},
				{"name": "functionSelectors", "type": "bytes4[]"}
			]
		}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "facetFunctionSelectors",
		"inputs": [{"name": "_facet", "type": "address"}],
		"outputs": [{"name": "facetFunctionSelectors_", "type": "bytes4[]"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "facetAddresses",
		"inputs": [],
		"outputs": [{"name": "facetAddresses_", "type": "address[]"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "facetAddress",
		"inputs": [{"name": "_functionSelector", "type": "bytes4"}],
		"outputs": [{"name": "facetAddress_", "type": "address"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "supportsInterface",
		"inputs": [{"name": "_interfaceId", "type": "bytes4"}],
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "view"
	}
]`

// ABI is IDiamondLoupe plus IERC165.
var ABI = abiutil.MustParse(abiJSON)

var (
	// IDiamondLoupe is 0x48e2b093.
	IDiamondLoupe = selector.InterfaceID(
		abiutil.Selector(ABI, "facets"),
		abiutil.Selector(ABI, "facetFunctionSelectors"),
		abiutil.Selector(ABI, "facetAddresses"),
		abiutil.Selector(ABI, "facetAddress"),
	)
	// IERC165 is 0x01ffc9a7.
	IERC165 = abiutil.Selector(ABI, "supportsInterface")
	// IDiamondCut is 0x1f931c1c.
	IDiamondCut = cut.DiamondCutSelector
	// IERC173 is 0x7f5828d0.
	IERC173 = selector.InterfaceID(
		selector.FromSignature("owner()"),
		selector.FromSignature("transferOwnership(address)"),
	)
)

type facetTuple struct {
	FacetAddress      common.Address
	FunctionSelectors [][4]byte
}

// Facet is the loupe facet. Its initializer declares the standard interfaces.
type Facet struct {
	*facet.Mux
}

var _ facet.Initializer = (*Facet)(nil)

func New() *Facet {
	f := &Facet{Mux: facet.NewMux()}
	f.Handle("facets()", f.facets).
		Handle("facetFunctionSelectors(address)", f.facetFunctionSelectors).
		Handle("facetAddresses()", f.facetAddresses).
		Handle("facetAddress(bytes4)", f.facetAddress).
		Handle("supportsInterface(bytes4)", f.supportsInterface)

	return f
}

// Initialize marks IDiamondCut, IDiamondLoupe, IERC165 and IERC173 as supported.
func (f *Facet) Initialize(call *facet.Call) error {
	for _, id := range []selector.Selector{IDiamondCut, IDiamondLoupe, IERC165, IERC173} {
		SetSupportsInterface(call.Storage, id, true)
	}

	return nil
}

// SupportsInterface reads an ERC-165 flag from s.
func SupportsInterface(s state.Storage, id selector.Selector) bool {
	return state.Open(s, state.Namespace(ERC165Namespace)).Bool(state.MappingKey(id.Bytes()))
}

// SetSupportsInterface writes an ERC-165 flag to s.
func SetSupportsInterface(s state.Storage, id selector.Selector, supported bool) {
	state.Open(s, state.Namespace(ERC165Namespace)).SetBool(state.MappingKey(id.Bytes()), supported)
}

func (f *Facet) facets(call *facet.Call) ([]byte, error) {
	list := call.Host.Loupe().Facets()
	tuples := make([]facetTuple, len(list))
	for i, fc := range list {
		tuples[i] = facetTuple{FacetAddress: fc.FacetAddress, FunctionSelectors: toBytes4(fc.FunctionSelectors)}
	}

	return abiutil.PackOutputs(ABI, "facets", tuples)
}

func (f *Facet) facetFunctionSelectors(call *facet.Call) ([]byte, error) {
	args, err := abiutil.UnpackInputs(ABI, "facetFunctionSelectors", call.Input)
	if err != nil {
		return nil, err
	}
	addr, ok := args[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("facetFunctionSelectors: _facet has type %T", args[0])
	}

	return abiutil.PackOutputs(ABI, "facetFunctionSelectors", toBytes4(call.Host.Loupe().FacetFunctionSelectors(addr)))
}

func (f *Facet) facetAddresses(call *facet.Call) ([]byte, error) {
	addrs := call.Host.Loupe().FacetAddresses()
	if addrs == nil {
		addrs = []common.Address{}
	}

	return abiutil.PackOutputs(ABI, "facetAddresses", addrs)
}

func (f *Facet) facetAddress(call *facet.Call) ([]byte, error) {
	sel, err := unpackBytes4(call.Input, "facetAddress")
	if err != nil {
		return nil, err
	}
	// unregistered selectors report the zero address
	addr, _ := call.Host.Loupe().FacetAddress(sel)

	return abiutil.PackOutputs(ABI, "facetAddress", addr)
}

func (f *Facet) supportsInterface(call *facet.Call) ([]byte, error) {
	id, err := unpackBytes4(call.Input, "supportsInterface")
	if err != nil {
		return nil, err
	}

	return abiutil.PackOutputs(ABI, "supportsInterface", SupportsInterface(call.Storage, id))
}

func unpackBytes4(input []byte, method string) (selector.Selector, error) {
	args, err := abiutil.UnpackInputs(ABI, method, input)
	if err != nil {
		return selector.Selector{}, err
	}
	b, ok := args[0].([4]byte)
	if !ok {
		return selector.Selector{}, fmt.Errorf("%s: argument has type %T", method, args[0])
	}

	return b, nil
}

func toBytes4(sels []selector.Selector) [][4]byte {
	out := make([][4]byte, len(sels))
	for i, s := range sels {
		out[i] = s
	}

	return out
}

// DecodeFacets decodes the output of facets().
func DecodeFacets(out []byte) ([]registry.Facet, error) {
	vals, err := abiutil.UnpackOutputs(ABI, "facets", out)
	if err != nil {
		return nil, err
	}
	tuples, err := abiutil.Convert[[]facetTuple](vals[0])
	if err != nil {
		return nil, err
	}

	list := make([]registry.Facet, len(tuples))
	for i, t := range tuples {
		list[i] = registry.Facet{FacetAddress: t.FacetAddress, FunctionSelectors: fromBytes4(t.FunctionSelectors)}
	}

	return list, nil
}

// DecodeSelectors decodes the output of facetFunctionSelectors(address).
func DecodeSelectors(out []byte) ([]selector.Selector, error) {
	vals, err := abiutil.UnpackOutputs(ABI, "facetFunctionSelectors", out)
	if err != nil {
		return nil, err
	}
	raw, ok := vals[0].([][4]byte)
	if !ok {
		return nil, fmt.Errorf("facetFunctionSelectors: output has type %T", vals[0])
	}

	return fromBytes4(raw), nil
}

// DecodeAddresses decodes the output of facetAddresses().
func DecodeAddresses(out []byte) ([]common.Address, error) {
	vals, err := abiutil.UnpackOutputs(ABI, "facetAddresses", out)
	if err != nil {
		return nil, err
	}
	addrs, ok := vals[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("facetAddresses: output has type %T", vals[0])
	}

	return addrs, nil
}

// DecodeAddress decodes the output of facetAddress(bytes4).
func DecodeAddress(out []byte) (common.Address, error) {
	vals, err := abiutil.UnpackOutputs(ABI, "facetAddress", out)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("facetAddress: output has type %T", vals[0])
	}

	return addr, nil
}

// DecodeBool decodes the output of supportsInterface(bytes4).
func DecodeBool(out []byte) (bool, error) {
	vals, err := abiutil.UnpackOutputs(ABI, "supportsInterface", out)
	if err != nil {
		return false, err
	}
	b, ok := vals[0].(bool)
	if !ok {
		return false, fmt.Errorf("supportsInterface: output has type %T", vals[0])
	}

	return b, nil
}

func fromBytes4(raw [][4]byte) []selector.Selector {
	out := make([]selector.Selector, len(raw))
	for i, s := range raw {
		out[i] = s
	}

	return out
}
