package collective

import (
	"fmt"

	"github.com/opencube-horizon/collective/metrics"
)

// Option configures an Endpoint. Use NewEndpointOptions(opts...) to construct
// one via options.
type Option func(*configOptions)

// internal builder state for options assembly.
type configOptions struct {
	cfg         Config
	poolPicked  poolKind
	addressVec  AddressVector
	reduction   ReductionKernel
	debugTraced bool
}

type poolKind int

const (
	poolUnspecified poolKind = iota
	poolDynamic
	poolFixed
)

// WithFixedItemPool selects a fixed-capacity work-item pool (must be > 0).
func WithFixedItemPool(n uint) Option {
	return func(co *configOptions) {
		if co.poolPicked != poolUnspecified && co.poolPicked != poolFixed {
			panic("conflicting pool options: WithFixedItemPool and WithDynamicItemPool both specified")
		}
		if n == 0 {
			panic("WithFixedItemPool requires n > 0")
		}
		co.poolPicked = poolFixed
		co.cfg.MaxItems = n
	}
}

// WithDynamicItemPool selects a dynamic work-item pool (the default).
func WithDynamicItemPool() Option {
	return func(co *configOptions) {
		if co.poolPicked != poolUnspecified && co.poolPicked != poolDynamic {
			panic("conflicting pool options: WithFixedItemPool and WithDynamicItemPool both specified")
		}
		co.poolPicked = poolDynamic
		co.cfg.MaxItems = 0
	}
}

// WithMetricsProvider sets the Endpoint's metrics.Provider. Default: noop.
func WithMetricsProvider(p metrics.Provider) Option {
	return func(co *configOptions) { co.cfg.MetricsProvider = p }
}

// WithReadyQueueBuffer hints the ready queue's initial capacity.
func WithReadyQueueBuffer(size uint) Option {
	return func(co *configOptions) { co.cfg.ReadyQueueBufferSize = size }
}

// WithAddressVector supplies the rank-to-address lookup collaborator.
func WithAddressVector(av AddressVector) Option {
	return func(co *configOptions) { co.addressVec = av }
}

// WithReductionKernel supplies the typed-buffer reduction collaborator.
func WithReductionKernel(rk ReductionKernel) Option {
	return func(co *configOptions) { co.reduction = rk }
}

// WithDebugTrace turns on the endpoint's per-item dispatch trace (see
// Endpoint.EnableDebugTrace). Off by default.
func WithDebugTrace() Option {
	return func(co *configOptions) { co.debugTraced = true }
}

// NewEndpointOptions creates a new Endpoint using functional options.
func NewEndpointOptions(opts ...Option) (*Endpoint, error) {
	co := configOptions{cfg: defaultConfig(), poolPicked: poolUnspecified}
	for _, opt := range opts {
		if opt == nil {
			panic("nil collective option")
		}
		opt(&co)
	}

	if co.poolPicked == poolUnspecified {
		co.poolPicked = poolDynamic
		co.cfg.MaxItems = 0
	}

	if err := validateConfig(&co.cfg); err != nil {
		return nil, fmt.Errorf("invalid collective config: %w", err)
	}
	if co.addressVec == nil {
		return nil, fmt.Errorf("%w: address vector required", ErrInvalidArg)
	}
	if co.reduction == nil {
		return nil, fmt.Errorf("%w: reduction kernel required", ErrInvalidArg)
	}

	ep := newEndpoint(&co.cfg, co.addressVec, co.reduction)
	if co.debugTraced {
		ep.EnableDebugTrace(true)
	}
	return ep, nil
}
