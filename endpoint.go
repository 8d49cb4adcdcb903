package collective

import (
	"sync"

	"github.com/opencube-horizon/collective/internal/clog"
	"github.com/opencube-horizon/collective/metrics"
	"github.com/opencube-horizon/collective/pool"
)

// Endpoint is the single-threaded cooperative scheduling context: one
// address vector, one reduction kernel, one shared ready queue, and one
// group-id allocator (spec §5). All mutation happens under lock, whether
// invoked from the caller's goroutine or from a transport completion
// callback.
type Endpoint struct {
	mu sync.Mutex

	av   AddressVector
	rk   ReductionKernel
	pool pool.Pool

	// ready is the single shared FIFO of items that have become runnable
	// across every in-flight operation on this endpoint (spec §4.4); it is
	// what coll_ep_progress drains.
	ready []WorkItem

	// groupMask tracks group ids in use, one bit per id, so Join can find
	// a free id via the same lsb-scan the original uses to release one.
	groupMask []uint64

	// activeOps holds every operation created but not yet destroyed, so
	// Close can abort whatever is still in flight.
	activeOps map[*Op]struct{}

	metrics     metrics.Provider
	opCounter   metrics.Counter
	readyGauge  metrics.UpDownCounter
	itemLatency metrics.Histogram

	debugTrace bool
	trace      *clog.Logger
	lifecycle  *lifecycleCoordinator
}

// newEndpoint wires cfg, av and rk into a ready-to-use Endpoint. Called by
// both NewEndpoint and NewEndpointOptions once validation has passed.
func newEndpoint(cfg *Config, av AddressVector, rk ReductionKernel) *Endpoint {
	var p pool.Pool
	if cfg.MaxItems > 0 {
		p = pool.NewFixed(cfg.MaxItems, func() interface{} { return new(xferItem) })
	} else {
		p = pool.NewDynamic(func() interface{} { return new(xferItem) })
	}

	mp := cfg.MetricsProvider
	if mp == nil {
		mp = metrics.NewNoopProvider()
	}

	ep := &Endpoint{
		av:          av,
		rk:          rk,
		pool:        p,
		ready:       make([]WorkItem, 0, cfg.ReadyQueueBufferSize),
		groupMask:   make([]uint64, 1<<10), // 64Ki group ids worth of bits
		activeOps:   make(map[*Op]struct{}),
		metrics:     mp,
		opCounter:   mp.Counter("collective.ops", metrics.WithDescription("operations completed"), metrics.WithUnit("1")),
		readyGauge:  mp.UpDownCounter("collective.ready_queue_depth", metrics.WithDescription("items in the ready queue"), metrics.WithUnit("1")),
		itemLatency: mp.Histogram("collective.item_latency", metrics.WithDescription("time from item becoming ready to completion"), metrics.WithUnit("s")),
		trace:       clog.New("collective: "),
	}
	ep.groupMask[0] |= 1 // group id 0 is reserved for World
	lastWord, lastBit := int(joinNegotiationGroupID)/64, int(joinNegotiationGroupID)%64
	ep.groupMask[lastWord] |= 1 << uint(lastBit) // reserved for Join's own negotiation cid
	ep.lifecycle = newLifecycleCoordinator(ep)
	return ep
}

// NewEndpoint is the direct Config-based constructor. cfg may be nil to
// accept all defaults; av and rk are required collaborators.
func NewEndpoint(cfg *Config, av AddressVector, rk ReductionKernel) (*Endpoint, error) {
	if av == nil || rk == nil {
		return nil, ErrInvalidArg
	}
	c := defaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if err := validateConfig(&c); err != nil {
		return nil, err
	}
	return newEndpoint(&c, av, rk), nil
}

// EnableDebugTrace turns this endpoint's per-item dispatch trace on or off,
// mirroring the original's FI_DBG gate. Turning it on also enables
// internal/clog output process-wide; turning it off silences only this
// endpoint.
func (ep *Endpoint) EnableDebugTrace(on bool) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.debugTrace = on
	if on {
		clog.Enable()
	}
}

// World wraps an already-resolved rank table as the bootstrap group (group
// id 0). Every endpoint must start from a World before it can Join a
// sub-group (spec §3: "group_id 0 is reserved for the bootstrap group").
func (ep *Endpoint) World(ranks []Address) (*GroupMC, error) {
	return newGroup(ep, ranks, 0)
}

// freeGroupID releases id back to the free-id space a future Join's
// BAND-reduce can hand out again (spec §3: group ids are released on
// Close).
func (ep *Endpoint) freeGroupID(id uint16) {
	if id == 0 || id == joinNegotiationGroupID {
		return
	}
	word, bit := int(id)/64, int(id)%64
	ep.groupMask[word] &^= 1 << uint(bit)
}

// enqueueReady appends item to the shared ready queue and marks it
// Processing (spec §4.4: "picking a single WAITING item ... -> PROCESSING
// -> appended to a single shared ready queue").
func (ep *Endpoint) enqueueReady(item WorkItem) {
	item.header().state = Processing
	ep.ready = append(ep.ready, item)
	ep.readyGauge.Add(1)
}

// requeueReady re-appends item at the tail without changing its state,
// used by Drive's EAGAIN retry path (original: coll_ep_progress's
// -FI_EAGAIN re-enqueue-at-tail-and-stop).
func (ep *Endpoint) requeueReady(item WorkItem) {
	ep.ready = append(ep.ready, item)
	ep.readyGauge.Add(1)
}

// popReady removes and returns the head of the ready queue, or nil if empty.
func (ep *Endpoint) popReady() WorkItem {
	if len(ep.ready) == 0 {
		return nil
	}
	item := ep.ready[0]
	ep.ready = ep.ready[1:]
	ep.readyGauge.Add(-1)
	return item
}
