package diamond

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/pkg/logger"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

// Option configures a Diamond at construction.
type Option func(*config)

type config struct {
	address    *common.Address
	lggr       logger.Logger
	sinks      []cut.Sink
	authorizer Authorizer
	native     facet.Logic
	immutable  []selector.Selector
}

// WithAddress sets the diamond's address. It defaults to the address of the owner's first
// contract creation.
func WithAddress(addr common.Address) Option {
	return func(c *config) {
		c.address = &addr
	}
}

// WithLogger sets the logger. It defaults to a no-op logger.
func WithLogger(lggr logger.Logger) Option {
	return func(c *config) {
		c.lggr = lggr
	}
}

// WithSink adds a change record sink. Without any, records are written to the logger.
func WithSink(s cut.Sink) Option {
	return func(c *config) {
		c.sinks = append(c.sinks, s)
	}
}

// WithAuthorizer replaces the default OwnerAuthorizer.
func WithAuthorizer(a Authorizer) Option {
	return func(c *config) {
		c.authorizer = a
	}
}

// WithImmutableFunctions defines logic on the diamond itself. sels are registered at
// construction, backed by the diamond's own address, and can never be replaced or removed.
// When sels is empty and logic lists its own selectors, those are used.
func WithImmutableFunctions(logic facet.Logic, sels ...selector.Selector) Option {
	return func(c *config) {
		if len(sels) == 0 {
			if l, ok := logic.(facet.SelectorLister); ok {
				sels = l.Selectors()
			}
		}
		c.native = logic
		c.immutable = sels
	}
}
