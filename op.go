package collective

import "github.com/google/uuid"

// OpKind is the collective kind an Op realizes (spec §3).
type OpKind int

const (
	KindJoin OpKind = iota
	KindBarrier
	KindAllReduce
	KindAllGather
	KindScatter
	KindBroadcast
)

func (k OpKind) String() string {
	switch k {
	case KindJoin:
		return "JOIN"
	case KindBarrier:
		return "BARRIER"
	case KindAllReduce:
		return "ALLREDUCE"
	case KindAllGather:
		return "ALLGATHER"
	case KindScatter:
		return "SCATTER"
	case KindBroadcast:
		return "BROADCAST"
	default:
		return "UNKNOWN"
	}
}

// CompletionCallback is invoked exactly once per operation: when its terminal
// Completion item runs or, if the endpoint is closed first, from Close. err
// is non-nil iff some work item in the operation failed (a transport or
// reduction error), a Join found no free group id, or the endpoint was
// closed (ErrClosed) (spec §9 open-gap resolution, SPEC_FULL §E).
type CompletionCallback func(op *Op, err error)

// allReduceData is plan_allreduce's kind-specific scratch (spec §3 Op:
// "kind-specific scratch payload").
type allReduceData struct {
	tmp []byte
}

// scatterData is plan_scatter's scratch, allocated lazily by the planner
// only for the ranks that need it (non-root even relative rank, or root
// when root != 0).
type scatterData struct {
	scratch []byte
}

// broadcastData has room for the original's per-rank chunk buffer and
// scatter scratch. Broadcast works directly in the caller's buffer and
// leaves both nil.
type broadcastData struct {
	chunk   []byte
	scratch []byte
}

// joinData is plan_join's scratch: the endpoint's group-id mask snapshot
// (data) and the all-reduce temporary (tmp), plus the new group under
// construction, whose group_id is assigned on completion.
type joinData struct {
	newGroup *GroupMC
	data     []byte
	tmp      []byte
}

// Op is one in-flight collective (spec §3). It owns an ordered work queue,
// kind-specific scratch, and is destroyed by the progress engine once its
// queue drains.
type Op struct {
	ep    *Endpoint
	group *GroupMC
	cid   uint32
	kind  OpKind
	flags uint64

	context  any
	complete CompletionCallback

	queue *workQueue
	err   error // recorded by OnXferError; delivered to complete on drain

	// TraceID correlates this operation across metrics and logs, grounded
	// on coatyio-dda-examples' pervasive use of google/uuid for
	// request/message correlation.
	TraceID uuid.UUID

	allreduce allReduceData
	scatter   scatterData
	broadcast broadcastData
	join      joinData
}

// createOp allocates a new Op, stamps its cid from the group, and links an
// empty work queue (spec §4.2 create).
func createOp(ep *Endpoint, group *GroupMC, kind OpKind, flags uint64, context any, cb CompletionCallback) *Op {
	cid := nextCID(group.groupID, &group.seq)
	op := &Op{
		ep:       ep,
		group:    group,
		cid:      cid,
		kind:     kind,
		flags:    flags,
		context:  context,
		complete: cb,
		queue:    newWorkQueue(),
		TraceID:  uuid.New(),
	}
	ep.activeOps[op] = struct{}{}
	return op
}

// localRank returns the op's group-relative local rank; it is the caller's
// responsibility to have validated membership before creating the op.
func (op *Op) localRank() int {
	r, _ := op.group.LocalRank()
	return r
}

// scheduleSend appends a Send item to the queue tail (spec §4.1, §4.2
// schedule_send). tag encodes the *sender's* rank so both sides agree on
// the match key even though each side names a different local rank.
func (op *Op) scheduleSend(dest int, buf []byte, count int, dt Datatype, fence bool) *xferItem {
	item := op.ep.pool.Get().(*xferItem)
	*item = xferItem{
		itemHeader: itemHeader{kind: KindSend, state: Waiting, fence: fence, op: op},
		remoteRank: dest,
		buf:        buf,
		count:      count,
		datatype:   dt,
		tag:        formTag(op.cid, op.localRank()),
	}
	op.queue.pushBack(item)
	return item
}

// scheduleRecv appends a Recv item to the queue tail. tag encodes src's
// rank, i.e. the sender's rank as seen from the sender's own side.
func (op *Op) scheduleRecv(src int, buf []byte, count int, dt Datatype, fence bool) *xferItem {
	item := op.ep.pool.Get().(*xferItem)
	*item = xferItem{
		itemHeader: itemHeader{kind: KindRecv, state: Waiting, fence: fence, op: op},
		remoteRank: src,
		buf:        buf,
		count:      count,
		datatype:   dt,
		tag:        formTag(op.cid, src),
	}
	op.queue.pushBack(item)
	return item
}

// scheduleReduce appends a Reduce item: inout := op(inout, in).
func (op *Op) scheduleReduce(in, inout []byte, count int, dt Datatype, rop ReduceOp, fence bool) *reduceItem {
	item := &reduceItem{
		itemHeader: itemHeader{kind: KindReduce, state: Waiting, fence: fence, op: op},
		inBuf:      in,
		inoutBuf:   inout,
		count:      count,
		datatype:   dt,
		op:         rop,
	}
	op.queue.pushBack(item)
	return item
}

// scheduleCopy appends a Copy item: out := in.
func (op *Op) scheduleCopy(in, out []byte, count int, dt Datatype, fence bool) *copyItem {
	item := &copyItem{
		itemHeader: itemHeader{kind: KindCopy, state: Waiting, fence: fence, op: op},
		inBuf:      in,
		outBuf:     out,
		count:      count,
		datatype:   dt,
	}
	op.queue.pushBack(item)
	return item
}

// scheduleCompletion appends the terminal, always-fenced Completion item.
func (op *Op) scheduleCompletion() *compItem {
	item := &compItem{
		itemHeader: itemHeader{kind: KindCompletion, state: Waiting, fence: true, op: op},
	}
	op.queue.pushBack(item)
	return item
}

// destroy runs kind-specific scratch teardown and is called by the progress
// engine once the queue has fully drained (spec §4.2 destroy; original's
// coll_collective_comp switch on coll_op->type).
func (op *Op) destroy() {
	switch op.kind {
	case KindAllReduce:
		op.allreduce.tmp = nil
	case KindScatter:
		op.scatter.scratch = nil
	case KindBroadcast:
		op.broadcast.chunk = nil
		op.broadcast.scratch = nil
	case KindJoin, KindBarrier, KindAllGather:
		// nothing to clean up
	}
}
