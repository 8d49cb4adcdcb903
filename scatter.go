package collective

// binomialSubtreeCount returns how many elements the subtree rooted at
// relRank (relative to the collective's root) actually covers, given a
// nominal subtree width of mask ranks. Nominal width is mask*count, but the
// last subtree in a non-power-of-two-sized group is clamped to whatever
// remains (spec §7; original: util_binomial_tree_values_to_recv).
func binomialSubtreeCount(relRank, n, mask, count int) int {
	c := mask * count
	if relRank+mask > n {
		c = (n - relRank) * count
	}
	return c
}

// Scatter schedules a binomial-tree scatter of sendbuf (meaningful only at
// root, laid out as n contiguous count-sized chunks in absolute rank order)
// into recvbuf at every member, root-relative (spec §7; original:
// coll_do_scatter). Non-root ranks may pass a nil sendbuf.
func Scatter(ep *Endpoint, group *GroupMC, sendbuf, recvbuf []byte, count int, dt Datatype, root int, ctx any, cb CompletionCallback) (*Op, error) {
	local, ok := group.LocalRank()
	if !ok {
		return nil, ErrAbsentRank
	}
	n := group.Size()
	elemSize := ep.rk.DatatypeSize(dt)

	ep.mu.Lock()
	defer ep.mu.Unlock()

	op := createOp(ep, group, KindScatter, 0, ctx, cb)

	if count == 0 {
		op.scheduleCompletion()
		ep.progress(op)
		return op, nil
	}

	if n == 1 {
		op.scheduleCopy(sendbuf[:count*elemSize], recvbuf, count, dt, true)
		op.scheduleCompletion()
		ep.progress(op)
		return op, nil
	}

	relRank := (local - root + n) % n

	var work []byte
	curCount := count
	sendMaskStart := 0
	needsDeposit := false

	if relRank == 0 {
		needsDeposit = true
		curCount = n * count
		if root == 0 {
			work = sendbuf
		} else {
			rotated := make([]byte, n*count*elemSize)
			tail := (n - root) * count * elemSize
			copy(rotated[:tail], sendbuf[root*count*elemSize:])
			copy(rotated[tail:], sendbuf[:root*count*elemSize])
			op.scatter.scratch = rotated
			work = rotated
		}
		m := 1
		for m < n {
			m <<= 1
		}
		sendMaskStart = m >> 1
	} else {
		recvMask := 1
		for relRank&recvMask == 0 {
			recvMask <<= 1
		}
		srcRel := relRank - recvMask
		curCount = binomialSubtreeCount(relRank, n, recvMask, count)
		srcAbs := (root + srcRel) % n

		if recvMask == 1 {
			// Leaf: nothing to forward, receive straight into the caller's
			// buffer.
			work = recvbuf
		} else {
			needsDeposit = true
			work = make([]byte, curCount*elemSize)
			op.scatter.scratch = work
		}
		op.scheduleRecv(srcAbs, work[:curCount*elemSize], curCount, dt, true)
		sendMaskStart = recvMask >> 1
	}

	for mask := sendMaskStart; mask > 0; mask >>= 1 {
		destRel := relRank + mask
		if destRel >= n {
			continue
		}
		sendCount := curCount - mask*count
		if sendCount <= 0 {
			// destRel < n guarantees a non-empty subtree to forward;
			// violating this means the binomial split above is wrong.
			panic("collective: scatter send_cnt must be positive")
		}
		destAbs := (root + destRel) % n
		off := mask * count * elemSize
		op.scheduleSend(destAbs, work[off:curCount*elemSize], sendCount, dt, true)
		curCount = mask * count
	}

	if needsDeposit {
		op.scheduleCopy(work[:count*elemSize], recvbuf, count, dt, true)
	}

	op.scheduleCompletion()
	ep.progress(op)
	return op, nil
}
