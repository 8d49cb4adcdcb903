package collective

import "container/list"

// ItemState is the three-state lifecycle of a WorkItem (spec §3). The
// progress engine and transport callbacks are the only writers.
type ItemState int

const (
	Waiting ItemState = iota
	Processing
	Complete
)

func (s ItemState) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Processing:
		return "PROCESSING"
	case Complete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// ItemKind identifies a WorkItem variant.
type ItemKind int

const (
	KindSend ItemKind = iota
	KindRecv
	KindReduce
	KindCopy
	KindCompletion
)

func (k ItemKind) String() string {
	switch k {
	case KindSend:
		return "SEND"
	case KindRecv:
		return "RECV"
	case KindReduce:
		return "REDUCE"
	case KindCopy:
		return "COPY"
	case KindCompletion:
		return "COMPLETION"
	default:
		return "UNKNOWN"
	}
}

// WorkItem is the tagged-union contract every scheduled action satisfies.
// Concrete variants (xferItem, reduceItem, copyItem, compItem) embed
// itemHeader and are dispatched on Kind() by the progress engine and
// dispatcher, mirroring the teacher's task[R] interface with one concrete
// struct per task-adapter shape.
type WorkItem interface {
	header() *itemHeader
	Kind() ItemKind
	State() ItemState
	Fence() bool
}

// itemHeader is embedded in every WorkItem variant. op is a non-owning
// back-pointer: items are destroyed before, and never outlive, their
// owning Op (spec §9). elem is this item's node in the owning Op's work
// queue, cached so the reaper can remove it in O(1) without a scan.
type itemHeader struct {
	kind  ItemKind
	state ItemState
	fence bool
	op    *Op
	elem  *list.Element
}

func (h *itemHeader) header() *itemHeader { return h }
func (h *itemHeader) Kind() ItemKind      { return h.kind }
func (h *itemHeader) State() ItemState    { return h.state }
func (h *itemHeader) Fence() bool         { return h.fence }

// xferItem realizes both Send and Recv (spec §3): {remote_rank, buf, count,
// datatype, tag}. The original source uses a single util_coll_xfer_item
// struct for both directions, distinguished by hdr.type; this mirrors that
// rather than splitting into two near-identical types.
type xferItem struct {
	itemHeader
	remoteRank int
	buf        []byte
	count      int
	datatype   Datatype
	tag        uint64
}

// reduceItem applies inout := op(inout, in) elementwise over count elements.
type reduceItem struct {
	itemHeader
	inBuf, inoutBuf []byte
	count           int
	datatype        Datatype
	op              ReduceOp
}

// copyItem performs a local buffer copy.
type copyItem struct {
	itemHeader
	inBuf, outBuf []byte
	count         int
	datatype      Datatype
}

// compItem carries no payload; it is always fenced and triggers the
// operation's completion callback when dispatched.
type compItem struct {
	itemHeader
}
