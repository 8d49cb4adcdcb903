package collective

// roundDownPowerOfTwo returns the largest power of two <= n, for n > 0.
func roundDownPowerOfTwo(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// AllReduce schedules an all-reduce of sendbuf over group using the
// recursive halving/doubling algorithm (spec §6, §7; original:
// coll_do_allreduce). sendbuf is first copied into result (spec §4.3.1), and
// the recursive halving/doubling then runs in place on result; sendbuf and
// result may alias for the original's in-place convenience. On completion
// result holds the reduction of every member's initial contents.
func AllReduce(ep *Endpoint, group *GroupMC, sendbuf, result []byte, count int, dt Datatype, rop ReduceOp, ctx any, cb CompletionCallback) (*Op, error) {
	if !ep.rk.Supports(dt, rop) {
		return nil, ErrUnsupported
	}
	if _, ok := group.LocalRank(); !ok {
		return nil, ErrAbsentRank
	}
	elemSize := ep.rk.DatatypeSize(dt)

	ep.mu.Lock()
	defer ep.mu.Unlock()

	op := createOp(ep, group, KindAllReduce, 0, ctx, cb)
	op.scheduleCopy(sendbuf[:count*elemSize], result[:count*elemSize], count, dt, true)
	scheduleAllReduce(ep, op, group, result, count, dt, rop)
	op.scheduleCompletion()
	ep.progress(op)
	return op, nil
}

// scheduleAllReduce appends the recursive halving/doubling work items for an
// in-place all-reduce of buf to op's queue, under whatever OpKind op was
// created with. Shared by AllReduce and Barrier, which layers the barrier
// semantics over a 1-element BAND all-reduce.
func scheduleAllReduce(ep *Endpoint, op *Op, group *GroupMC, buf []byte, count int, dt Datatype, rop ReduceOp) {
	local, _ := group.LocalRank()
	elemSize := ep.rk.DatatypeSize(dt)
	n := group.Size()
	pof2 := roundDownPowerOfTwo(n)
	rem := n - pof2
	myNewID := -1

	op.allreduce.tmp = make([]byte, elemSize*count)
	tmp := op.allreduce.tmp

	if local < 2*rem {
		if local%2 == 0 {
			// Fold in: give our contribution to our odd partner and drop
			// out of the butterfly phase.
			op.scheduleSend(local+1, buf, count, dt, true)
		} else {
			op.scheduleRecv(local-1, tmp, count, dt, true)
			op.scheduleReduce(tmp, buf, count, dt, rop, true) // buf = op(buf, tmp)
			myNewID = local / 2
		}
	} else {
		myNewID = local - rem
	}

	if myNewID != -1 {
		for mask := 1; mask < pof2; mask <<= 1 {
			nextRemote := myNewID ^ mask
			var remote int
			if nextRemote < rem {
				remote = nextRemote*2 + 1
			} else {
				remote = nextRemote + rem
			}
			op.scheduleRecv(remote, tmp, count, dt, false)
			op.scheduleSend(remote, buf, count, dt, true)
			if remote < local {
				op.scheduleReduce(buf, tmp, count, dt, rop, true) // tmp = op(tmp, buf)
				op.scheduleCopy(tmp, buf, count, dt, true)
			} else {
				op.scheduleReduce(tmp, buf, count, dt, rop, true) // buf = op(buf, tmp)
			}
		}
	}

	if local < 2*rem {
		if local%2 == 1 {
			op.scheduleSend(local-1, buf, count, dt, true)
		} else {
			op.scheduleRecv(local+1, buf, count, dt, true)
		}
	}
}
