package collective

// broadcastChunkSize returns how many elements of a count-element buffer,
// split into n chunks of nominal width chunkCnt, belong to rank i. The tail
// chunk shrinks, and zeroes out entirely once rank i's nominal chunk would
// start past count by more than one chunk width (spec §7; original:
// coll_ep_broadcast's chunk_cnt*local > count && chunk_cnt*local-count >
// chunk_cnt test).
func broadcastChunkSize(i, n, chunkCnt, count int) int {
	if chunkCnt*i > count && chunkCnt*i-count > chunkCnt {
		return 0
	}
	end := chunkCnt * (i + 1)
	if end > count {
		sz := count - chunkCnt*i
		if sz < 0 {
			return 0
		}
		return sz
	}
	return chunkCnt
}

// Broadcast schedules a scatter-then-allgather broadcast of buf (valid at
// root, to be filled in at every other member) (spec §7; original:
// coll_ep_broadcast). buf is divided into n roughly-equal chunks; root
// distributes each chunk directly to its owning rank, then every rank
// circulates its chunk around the ring until all have the complete buffer.
func Broadcast(ep *Endpoint, group *GroupMC, buf []byte, count int, dt Datatype, root int, ctx any, cb CompletionCallback) (*Op, error) {
	local, ok := group.LocalRank()
	if !ok {
		return nil, ErrAbsentRank
	}
	n := group.Size()
	elemSize := ep.rk.DatatypeSize(dt)
	chunkCnt := (count + n - 1) / n

	ep.mu.Lock()
	defer ep.mu.Unlock()

	op := createOp(ep, group, KindBroadcast, 0, ctx, cb)

	if n == 1 {
		op.scheduleCompletion()
		ep.progress(op)
		return op, nil
	}

	chunkOff := func(i int) int { return i * chunkCnt }
	chunkSz := func(i int) int { return broadcastChunkSize(i, n, chunkCnt, count) }

	for i := 0; i < n; i++ {
		if i == root {
			continue
		}
		sz := chunkSz(i)
		if sz == 0 {
			continue
		}
		off := chunkOff(i) * elemSize
		switch local {
		case root:
			op.scheduleSend(i, buf[off:off+sz*elemSize], sz, dt, false)
		case i:
			op.scheduleRecv(root, buf[off:off+sz*elemSize], sz, dt, true)
		}
	}

	left := (local - 1 + n) % n
	right := (local + 1) % n
	curOwner := local
	nextOwner := left

	for step := 1; step < n; step++ {
		if sz := chunkSz(curOwner); sz > 0 {
			off := chunkOff(curOwner) * elemSize
			op.scheduleSend(right, buf[off:off+sz*elemSize], sz, dt, false)
		}
		if sz := chunkSz(nextOwner); sz > 0 {
			off := chunkOff(nextOwner) * elemSize
			op.scheduleRecv(left, buf[off:off+sz*elemSize], sz, dt, true)
		}
		curOwner = nextOwner
		nextOwner = (nextOwner - 1 + n) % n
	}

	op.scheduleCompletion()
	ep.progress(op)
	return op, nil
}
