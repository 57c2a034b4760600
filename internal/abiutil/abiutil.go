// Package abiutil wraps go-ethereum's ABI codec for facets that speak the Solidity ABI.
package abiutil

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

// MustParse parses a JSON ABI and panics on failure.
func MustParse(abiJSON string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic("failed to parse ABI: " + err.Error())
	}

	return &parsed
}

// Selector returns the selector of method.
func Selector(a *abi.ABI, method string) selector.Selector {
	m, ok := a.Methods[method]
	if !ok {
		panic(fmt.Sprintf("abiutil: no method %s", method))
	}

	var s selector.Selector
	copy(s[:], m.ID)

	return s
}

// UnpackInputs decodes the arguments of method. input excludes the selector.
func UnpackInputs(a *abi.ABI, method string, input []byte) ([]any, error) {
	m, ok := a.Methods[method]
	if !ok {
		return nil, fmt.Errorf("no method %s", method)
	}
	args, err := m.Inputs.Unpack(input)
	if err != nil {
		return nil, fmt.Errorf("decode %s input: %w", method, err)
	}

	return args, nil
}

// PackOutputs encodes the return values of method.
func PackOutputs(a *abi.ABI, method string, values ...any) ([]byte, error) {
	m, ok := a.Methods[method]
	if !ok {
		return nil, fmt.Errorf("no method %s", method)
	}

	return m.Outputs.Pack(values...)
}

// UnpackOutputs decodes the return values of method.
func UnpackOutputs(a *abi.ABI, method string, output []byte) ([]any, error) {
	out, err := a.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("decode %s output: %w", method, err)
	}

	return out, nil
}

// PackInputs encodes the arguments of method without the selector, the form the diamond
// routes as input.
func PackInputs(a *abi.ABI, method string, args ...any) ([]byte, error) {
	m, ok := a.Methods[method]
	if !ok {
		return nil, fmt.Errorf("no method %s", method)
	}

	return m.Inputs.Pack(args...)
}

// Convert converts a decoded ABI value into T.
func Convert[T any](v any) (T, error) {
	converted, ok := abi.ConvertType(v, new(T)).(*T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("abi.ConvertType: cannot convert %T to %T", v, zero)
	}

	return *converted, nil
}
