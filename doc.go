// Package collective schedules and drives software collective operations
// (barrier, all-reduce, all-gather, scatter, broadcast, group join) over a
// caller-supplied tagged point-to-point transport.
//
// The package does not implement a transport, an address vector, or
// reduction kernels: it consumes them (see Transport, AddressVector,
// ReductionKernel). Given those, it schedules the send/recv/reduce/copy
// work items that realize each collective, orders them with fences, and
// drives them to completion from repeated calls to (*Endpoint).Drive.
//
// Construction
//   - NewEndpoint(cfg *Config, av AddressVector, rk ReductionKernel): direct
//     constructor; cfg may be nil to accept all defaults.
//   - NewEndpointOptions(opts ...Option): options-based constructor; prefer
//     this in new code.
//
// Concurrency
// An Endpoint is single-threaded cooperative: all queue manipulation,
// planning, progress scans, and dispatch happen while the endpoint's lock is
// held, whether called from the user's goroutine or from a transport
// completion callback. There are no blocking waits inside the engine; the
// only suspension point is the external Drive/progress-tick loop the caller
// runs.
//
// Observability
// The engine has no logging dependency. All instrumentation goes through
// metrics.Provider: a completed-operation counter and a ready-queue depth
// gauge; an item-latency histogram is registered but nothing records into
// it. A conditional per-item dispatch trace is available via internal/clog,
// mirroring the original implementation's FI_DBG trace; it stays off until
// (*Endpoint).EnableDebugTrace or WithDebugTrace turns it on, so it costs
// nothing by default. There is no dump of a whole work queue.
package collective
