// Package counter is an example facet that keeps its state in both kinds of region: a running
// total in the shared AppStorage schema, and per-caller tallies in its own namespace.
//
// Version 2 appends a paused flag to AppStorage, which is how shared schemas evolve.
package counter

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/diamond"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/internal/abiutil"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

const (
	Name      = "counter"
	Version   = "1.0.0"
	VersionV2 = "2.0.0"

	// Namespace holds per-caller tallies.
	Namespace = "diamond.example.counter.storage"
)

// AppStorage is the shared schema at version 1.
var AppStorage = state.Schema{
	Name: "AppStorage",
	Fields: []state.Field{
		{Name: "total", Type: "uint256"},
		{Name: "lastCaller", Type: "address"},
	},
}

// AppStorageV2 appends the paused flag.
var AppStorageV2 = state.Schema{
	Name:   AppStorage.Name,
	Fields: append(append([]state.Field{}, AppStorage.Fields...), state.Field{Name: "paused", Type: "bool"}),
}

const abiJSON = `[
	{
		"type": "function",
		"name": "initialize",
		"inputs": [{"name": "_start", "type": "uint256"}],
		"outputs": [],
		"stateMutability": "nonpayable"
	},
	{
		"type": "function",
		"name": "increment",
		"inputs": [{"name": "_by", "type": "uint256"}],
		"outputs": [{"name": "total_", "type": "uint256"}],
		"stateMutability": "nonpayable"
	},
	{
		"type": "function",
		"name": "incrementAndFail",
		"inputs": [{"name": "_by", "type": "uint256"}],
		"outputs": [],
		"stateMutability": "nonpayable"
	},
	{
		"type": "function",
		"name": "total",
		"inputs": [],
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "countOf",
		"inputs": [{"name": "_account", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "lastCaller",
		"inputs": [],
		"outputs": [{"name": "", "type": "address"}],
		"stateMutability": "view"
	},
	{
		"type": "function",
		"name": "setPaused",
		"inputs": [{"name": "_paused", "type": "bool"}],
		"outputs": [],
		"stateMutability": "nonpayable"
	},
	{
		"type": "function",
		"name": "paused",
		"inputs": [],
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "view"
	}
]`

// ABI covers both versions.
var ABI = abiutil.MustParse(abiJSON)

var (
	Increment        = abiutil.Selector(ABI, "increment")
	IncrementAndFail = abiutil.Selector(ABI, "incrementAndFail")
	Total            = abiutil.Selector(ABI, "total")
	CountOf          = abiutil.Selector(ABI, "countOf")
	LastCaller       = abiutil.Selector(ABI, "lastCaller")
	SetPaused        = abiutil.Selector(ABI, "setPaused")
	Paused           = abiutil.Selector(ABI, "paused")
	InitializeSel    = abiutil.Selector(ABI, "initialize")
)

// Facet is the counter facet.
type Facet struct {
	*facet.Mux

	schema state.Schema
}

var _ facet.Initializer = (*Facet)(nil)

// New returns version 1.
func New() *Facet {
	f := &Facet{Mux: facet.NewMux(), schema: AppStorage}
	f.register()

	return f
}

// NewV2 returns version 2, which adds pausing.
func NewV2() *Facet {
	f := &Facet{Mux: facet.NewMux(), schema: AppStorageV2}
	f.register()
	f.Handle("setPaused(bool)", f.setPaused).
		Handle("paused()", f.paused)

	return f
}

func (f *Facet) register() {
	f.Handle("increment(uint256)", f.increment).
		Handle("incrementAndFail(uint256)", f.incrementAndFail).
		Handle("total()", f.total).
		Handle("countOf(address)", f.countOf).
		Handle("lastCaller()", f.lastCaller)
}

// Initialize binds AppStorage, recording or upgrading its layout. Non-empty input must be
// initialize(uint256) calldata and sets the starting total.
func (f *Facet) Initialize(call *facet.Call) error {
	app, err := call.Bind(f.schema)
	if err != nil {
		return err
	}
	if len(call.Input) == 0 {
		return nil
	}
	if len(call.Input) < selector.Length || !bytes.Equal(call.Input[:selector.Length], InitializeSel.Bytes()) {
		return facet.Revert("counter: unexpected init calldata")
	}
	start, err := unpackUint(call.Input[selector.Length:], "initialize")
	if err != nil {
		return err
	}
	app.SetBig(app.MustSlot("total"), start)

	return nil
}

func (f *Facet) increment(call *facet.Call) ([]byte, error) {
	by, err := unpackUint(call.Input, "increment")
	if err != nil {
		return nil, err
	}
	total, err := f.add(call, by)
	if err != nil {
		return nil, err
	}

	return abiutil.PackOutputs(ABI, "increment", total)
}

// incrementAndFail performs a full increment and then reverts, so none of it is kept.
func (f *Facet) incrementAndFail(call *facet.Call) ([]byte, error) {
	by, err := unpackUint(call.Input, "incrementAndFail")
	if err != nil {
		return nil, err
	}
	total, err := f.add(call, by)
	if err != nil {
		return nil, err
	}

	return nil, facet.Revertf("counter: failing after reaching %s", total)
}

func (f *Facet) add(call *facet.Call, by *big.Int) (*big.Int, error) {
	app, err := call.Bind(f.schema)
	if err != nil {
		return nil, err
	}
	if slot, err := app.Slot("paused"); err == nil && app.Bool(slot) {
		return nil, facet.Revert("counter: paused")
	}

	total := new(big.Int).Add(app.Big(app.MustSlot("total")), by)
	app.SetBig(app.MustSlot("total"), total)
	app.SetAddress(app.MustSlot("lastCaller"), call.Caller)

	tally := call.Namespace(Namespace)
	key := state.MappingKey(call.Caller.Bytes())
	tally.SetBig(key, new(big.Int).Add(tally.Big(key), by))

	return total, nil
}

func (f *Facet) total(call *facet.Call) ([]byte, error) {
	app, err := call.Bind(f.schema)
	if err != nil {
		return nil, err
	}

	return abiutil.PackOutputs(ABI, "total", app.Big(app.MustSlot("total")))
}

func (f *Facet) countOf(call *facet.Call) ([]byte, error) {
	args, err := abiutil.UnpackInputs(ABI, "countOf", call.Input)
	if err != nil {
		return nil, err
	}
	account, ok := args[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("countOf: _account has type %T", args[0])
	}

	return abiutil.PackOutputs(ABI, "countOf", call.Namespace(Namespace).Big(state.MappingKey(account.Bytes())))
}

func (f *Facet) lastCaller(call *facet.Call) ([]byte, error) {
	app, err := call.Bind(f.schema)
	if err != nil {
		return nil, err
	}

	return abiutil.PackOutputs(ABI, "lastCaller", app.Address(app.MustSlot("lastCaller")))
}

func (f *Facet) setPaused(call *facet.Call) ([]byte, error) {
	if call.Caller != diamond.ContractOwner(call.Storage) {
		return nil, facet.Revert("LibDiamond: Must be contract owner")
	}
	args, err := abiutil.UnpackInputs(ABI, "setPaused", call.Input)
	if err != nil {
		return nil, err
	}
	p, ok := args[0].(bool)
	if !ok {
		return nil, fmt.Errorf("setPaused: _paused has type %T", args[0])
	}
	app, err := call.Bind(f.schema)
	if err != nil {
		return nil, err
	}
	app.SetBool(app.MustSlot("paused"), p)

	return nil, nil
}

func (f *Facet) paused(call *facet.Call) ([]byte, error) {
	app, err := call.Bind(f.schema)
	if err != nil {
		return nil, err
	}

	return abiutil.PackOutputs(ABI, "paused", app.Bool(app.MustSlot("paused")))
}

func unpackUint(input []byte, method string) (*big.Int, error) {
	args, err := abiutil.UnpackInputs(ABI, method, input)
	if err != nil {
		return nil, err
	}
	v, ok := args[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: argument has type %T", method, args[0])
	}

	return v, nil
}

// PackCall encodes the input of method, without the selector.
func PackCall(method string, args ...any) []byte {
	b, err := abiutil.PackInputs(ABI, method, args...)
	if err != nil {
		panic(err)
	}

	return b
}

// PackInit encodes initialize(uint256) calldata for a cut's init hook.
func PackInit(start *big.Int) []byte {
	b, err := ABI.Pack("initialize", start)
	if err != nil {
		panic(err)
	}

	return b
}

// DecodeUint decodes a single uint256 output of method.
func DecodeUint(method string, out []byte) (*big.Int, error) {
	vals, err := abiutil.UnpackOutputs(ABI, method, out)
	if err != nil {
		return nil, err
	}
	v, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: output has type %T", method, vals[0])
	}

	return v, nil
}
