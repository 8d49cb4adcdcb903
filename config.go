package collective

import "github.com/opencube-horizon/collective/metrics"

// maxMembers is the hard ceiling on ranks per group, imposed by the width of
// the rank field packed into the high 32 bits of a wire tag (spec §3
// invariant 6, §6 Query: max_members = 2^31 - 1).
const maxMembers = (1 << 31) - 1

// Config holds Endpoint configuration.
type Config struct {
	// MaxItems bounds the size of the fixed work-item pool. Zero (default)
	// selects a dynamic pool that grows and shrinks via sync.Pool.
	// Default: 0 (dynamic pool)
	MaxItems uint

	// MetricsProvider receives Endpoint instrumentation (completed-operation
	// count, ready-queue depth). An item-latency histogram is also registered
	// with it, but nothing records into it. Default: metrics.NewNoopProvider().
	MetricsProvider metrics.Provider

	// ReadyQueueBufferSize hints the initial capacity of the endpoint's FIFO
	// ready queue. Default: 64.
	ReadyQueueBufferSize uint
}

// defaultConfig centralizes default values for Config.
// These defaults are applied by both NewEndpoint (when cfg is nil) and
// NewEndpointOptions (options builder base).
func defaultConfig() Config {
	return Config{
		MaxItems:             0, // dynamic pool
		MetricsProvider:      metrics.NewNoopProvider(),
		ReadyQueueBufferSize: 64,
	}
}

// validateConfig performs lightweight invariant checks.
func validateConfig(cfg *Config) error {
	if cfg.MetricsProvider == nil {
		cfg.MetricsProvider = metrics.NewNoopProvider()
	}
	if cfg.ReadyQueueBufferSize == 0 {
		cfg.ReadyQueueBufferSize = 64
	}
	return nil
}
