package facet

import (
	"errors"
	"fmt"

	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

var ErrUnknownSelector = errors.New("facet does not implement selector")

// Handler serves one function of a facet.
type Handler func(call *Call) ([]byte, error)

// Mux is facet Logic assembled from function signatures and their handlers.
type Mux struct {
	handlers   map[selector.Selector]Handler
	signatures map[selector.Selector]string
	order      []selector.Selector
}

var (
	_ Logic          = (*Mux)(nil)
	_ SelectorLister = (*Mux)(nil)
)

func NewMux() *Mux {
	return &Mux{
		handlers:   make(map[selector.Selector]Handler),
		signatures: make(map[selector.Selector]string),
	}
}

// Handle registers h for signature, e.g. "transfer(address,uint256)". It panics if the
// signature's selector is already taken, which also catches selector clashes.
func (m *Mux) Handle(signature string, h Handler) *Mux {
	sel := selector.FromSignature(signature)
	if prev, dup := m.signatures[sel]; dup {
		panic(fmt.Sprintf("facet: %s clashes with %s on selector %s", signature, prev, sel))
	}
	m.handlers[sel] = h
	m.signatures[sel] = signature
	m.order = append(m.order, sel)

	return m
}

// Invoke implements Logic.
func (m *Mux) Invoke(call *Call) ([]byte, error) {
	h, ok := m.handlers[call.Selector]
	if !ok {
		return nil, fmt.Errorf("selector %s: %w", call.Selector, ErrUnknownSelector)
	}

	return h(call)
}

// Selectors returns the registered selectors in registration order.
func (m *Mux) Selectors() []selector.Selector {
	out := make([]selector.Selector, len(m.order))
	copy(out, m.order)

	return out
}

// Signature returns the signature registered for sel.
func (m *Mux) Signature(sel selector.Selector) (string, bool) {
	s, ok := m.signatures[sel]

	return s, ok
}
