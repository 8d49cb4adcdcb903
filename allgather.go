package collective

// AllGather schedules a ring all-gather: every member's nbytes-sized chunk
// of local data is copied into result at offset local_rank*nbytes, then N-1
// ring steps circulate each member's chunk to every other member (spec §7;
// original: coll_do_allgather).
func AllGather(ep *Endpoint, group *GroupMC, data []byte, result []byte, count int, dt Datatype, ctx any, cb CompletionCallback) (*Op, error) {
	local, ok := group.LocalRank()
	if !ok {
		return nil, ErrAbsentRank
	}

	elemSize := ep.rk.DatatypeSize(dt)
	nbytes := elemSize * count
	n := group.Size()

	ep.mu.Lock()
	defer ep.mu.Unlock()

	op := createOp(ep, group, KindAllGather, 0, ctx, cb)

	op.scheduleCopy(data, result[local*nbytes:(local+1)*nbytes], count, dt, true)

	left := (local - 1 + n) % n
	right := (local + 1) % n

	curRank := local
	nextRank := left

	for i := 1; i < n; i++ {
		sendSlice := result[curRank*nbytes : (curRank+1)*nbytes]
		recvSlice := result[nextRank*nbytes : (nextRank+1)*nbytes]
		op.scheduleSend(right, sendSlice, count, dt, false)
		op.scheduleRecv(left, recvSlice, count, dt, true)
		curRank = nextRank
		nextRank = (nextRank - 1 + n) % n
	}

	op.scheduleCompletion()
	ep.progress(op)
	return op, nil
}
