// Package diamondcut is the facet exposing IDiamondCut: it decodes ABI-encoded cut requests
// and hands them to the diamond executing the call.
package diamondcut

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/internal/abiutil"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

const (
	Name    = "diamondcut"
	Version = "1.0.0"
)

const abiJSON = `[
	{
		"type": "function",
		"name": "diamondCut",
		"inputs": [
			{
				"name": "_diamondCut",
				"type": "tuple[]",
				"components": [
					{"name": "facetAddress", "type": "address"},
					{"name": "action", "type": "uint8"},
					{"name": "functionSelectors", "type": "bytes4[]"}
				]
			},
			{"name": "_init", "type": "address"},
			{"name": "_calldata", "type": "bytes"}
		],
		"outputs": [],
		"stateMutability": "nonpayable"
	}
]`

// ABI is the IDiamondCut interface.
var ABI = abiutil.MustParse(abiJSON)

type facetCutTuple struct {
	FacetAddress      common.Address
	Action            uint8
	FunctionSelectors [][4]byte
}

// Facet is the IDiamondCut facet.
type Facet struct {
	*facet.Mux
}

func New() *Facet {
	f := &Facet{Mux: facet.NewMux()}
	f.Handle(cut.DiamondCutSignature, f.diamondCut)

	return f
}

func (f *Facet) diamondCut(call *facet.Call) ([]byte, error) {
	req, err := Unpack(call.Input)
	if err != nil {
		return nil, err
	}

	return nil, call.Host.DiamondCut(req)
}

// Pack encodes req as diamondCut calldata, selector included.
func Pack(req cut.Request) ([]byte, error) {
	tuples := make([]facetCutTuple, len(req.Cuts))
	for i, c := range req.Cuts {
		sels := make([][4]byte, len(c.FunctionSelectors))
		for j, s := range c.FunctionSelectors {
			sels[j] = s
		}
		tuples[i] = facetCutTuple{FacetAddress: c.FacetAddress, Action: uint8(c.Action), FunctionSelectors: sels}
	}
	calldata := []byte(req.Init.Calldata)
	if calldata == nil {
		calldata = []byte{}
	}

	return ABI.Pack("diamondCut", tuples, req.Init.Facet, calldata)
}

// Unpack decodes diamondCut input. input excludes the selector.
func Unpack(input []byte) (cut.Request, error) {
	args, err := abiutil.UnpackInputs(ABI, "diamondCut", input)
	if err != nil {
		return cut.Request{}, err
	}
	if len(args) != 3 {
		return cut.Request{}, fmt.Errorf("diamondCut: expected 3 arguments, got %d", len(args))
	}

	tuples, err := abiutil.Convert[[]facetCutTuple](args[0])
	if err != nil {
		return cut.Request{}, fmt.Errorf("diamondCut: %w", err)
	}
	initFacet, ok := args[1].(common.Address)
	if !ok {
		return cut.Request{}, fmt.Errorf("diamondCut: _init has type %T", args[1])
	}
	calldata, ok := args[2].([]byte)
	if !ok {
		return cut.Request{}, fmt.Errorf("diamondCut: _calldata has type %T", args[2])
	}

	req := cut.Request{Cuts: make([]cut.FacetCut, len(tuples))}
	for i, t := range tuples {
		sels := make([]selector.Selector, len(t.FunctionSelectors))
		for j, s := range t.FunctionSelectors {
			sels[j] = s
		}
		req.Cuts[i] = cut.FacetCut{FacetAddress: t.FacetAddress, Action: cut.Action(t.Action), FunctionSelectors: sels}
	}
	req.Init = cut.Init{Facet: initFacet}
	if len(calldata) > 0 {
		req.Init.Calldata = calldata
	}

	return req, nil
}
