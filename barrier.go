package collective

import "encoding/binary"

// Barrier schedules a barrier over group: every member blocks (in the sense
// that its Completion item cannot run) until every other member has
// entered. It is realized as a 1-element bitwise-AND all-reduce of each
// rank's bitwise-complemented rank (spec §7; original: barrier is
// implemented as coll_do_allreduce with FI_BAND over ~rank, FI_UINT64).
func Barrier(ep *Endpoint, group *GroupMC, ctx any, cb CompletionCallback) (*Op, error) {
	local, ok := group.LocalRank()
	if !ok {
		return nil, ErrAbsentRank
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, ^uint64(local))

	ep.mu.Lock()
	defer ep.mu.Unlock()

	op := createOp(ep, group, KindBarrier, 0, ctx, cb)
	scheduleAllReduce(ep, op, group, buf, 1, Uint64, OpBAND)
	op.scheduleCompletion()
	ep.progress(op)
	return op, nil
}
