package collective

// progress reaps COMPLETE items from the head of op's work queue, then
// promotes at most one WAITING item to the endpoint's shared ready queue
// (spec §4.4; original: coll_progress_work). Fences block the scan: once it
// meets a fenced item that has not been reaped (still PROCESSING, or
// COMPLETE behind an unreaped item), nothing after it is promoted. A fenced
// item itself may be promoted as soon as no such fenced item precedes it.
func (ep *Endpoint) progress(op *Op) {
	q := op.queue

	for {
		head := q.front()
		if head == nil {
			return
		}
		if head.State() != Complete {
			break
		}
		q.remove(head)
		if xi, ok := head.(*xferItem); ok {
			ep.pool.Put(xi)
		}
	}

	for item := q.front(); item != nil; item = q.next(item) {
		h := item.header()
		if h.state != Waiting {
			// Already Processing or queued ahead of completion; a fenced
			// item here still blocks promotion of anything after it.
			if h.fence {
				return
			}
			continue
		}
		ep.enqueueReady(item)
		return
	}
}

// drive dispatches ready items until the queue empties or a Send reports
// transient backpressure (spec §4.4; original: coll_ep_progress). A Send
// that returns StatusRetry is re-queued at the tail and draining stops
// entirely for this call, matching the original's -FI_EAGAIN handling:
// later items must not jump ahead of a send that will be retried.
func (ep *Endpoint) drive(t Transport) {
	for {
		item := ep.popReady()
		if item == nil {
			return
		}
		if !ep.dispatch(t, item) {
			ep.requeueReady(item)
			return
		}
	}
}

// dispatch executes one ready item. It returns false only for a Send that
// must be retried (StatusRetry); every other outcome, including a
// synchronous transport error, is terminal for the item and returns true so
// draining continues.
func (ep *Endpoint) dispatch(t Transport, item WorkItem) bool {
	h := item.header()
	op := h.op
	if ep.debugTrace {
		ep.trace.Printf("op=%s cid=%d item=%s fence=%v", op.kind, op.cid, h.kind, h.fence)
	}

	switch v := item.(type) {
	case *xferItem:
		if h.kind == KindSend {
			addr := op.group.addressOf(v.remoteRank)
			switch t.SendTagged(addr, v.tag, v.buf, v.count, v.datatype, item) {
			case StatusRetry:
				return false
			case StatusError:
				ep.completeItem(item, ErrTransport)
			default:
				// StatusOK: completion arrives asynchronously via
				// OnXferComplete/OnXferError. The item stays Processing, so
				// op's next queued item (e.g. the fenced Send that follows
				// this Recv in the all-reduce butterfly) must be surfaced
				// now rather than waiting for this transfer to drain
				// (original: coll_ep_progress calls coll_progress_work
				// after every dispatch, coll_coll.c:884).
				ep.progress(op)
			}
			return true
		}
		addr := op.group.addressOf(v.remoteRank)
		switch t.RecvTagged(addr, v.tag, v.buf, v.count, v.datatype, item) {
		case StatusError:
			ep.completeItem(item, ErrTransport)
		default:
			// StatusOK, or StatusRetry, which RecvTagged is not expected
			// to return: both are treated as a posted receive that
			// completes asynchronously (no re-post is made), and the next
			// queued item is co-scheduled now.
			ep.progress(op)
		}
		return true

	case *reduceItem:
		err := ep.rk.Reduce(v.op, v.datatype, v.inoutBuf, v.inBuf, v.count)
		ep.completeItem(item, err)
		return true

	case *copyItem:
		sz := ep.rk.DatatypeSize(v.datatype) * v.count
		copy(v.outBuf[:sz], v.inBuf[:sz])
		ep.completeItem(item, nil)
		return true

	case *compItem:
		ep.completeItem(item, nil)
		ep.opCounter.Add(1)
		if op.kind == KindJoin {
			ep.finishJoin(op)
		}
		if op.complete != nil {
			op.complete(op, op.err)
		}
		op.destroy()
		delete(ep.activeOps, op)
		return true
	}
	return true
}

// completeItem marks item COMPLETE, records the first error seen by its
// operation, and re-runs progress so the next queue entry can become
// ready.
func (ep *Endpoint) completeItem(item WorkItem, err error) {
	h := item.header()
	h.state = Complete
	op := h.op
	if err != nil && op.err == nil {
		rank := op.localRank()
		if xi, ok := item.(*xferItem); ok {
			rank = xi.remoteRank
		}
		op.err = newCollectiveError(err, rank, h.kind)
	}
	ep.progress(op)
}

// OnXferComplete is the Transport's success callback for an item previously
// posted via SendTagged/RecvTagged.
func (ep *Endpoint) OnXferComplete(item WorkItem) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.completeItem(item, nil)
}

// OnXferError is the Transport's failure callback for an item previously
// posted via SendTagged/RecvTagged. The operation's completion callback will
// receive err once its Completion item drains.
func (ep *Endpoint) OnXferError(item WorkItem, err error) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.completeItem(item, err)
}

// startOp locks the endpoint and runs the initial progress scan over a
// freshly planned operation's work queue, promoting its first runnable item
// (spec §4.2 bind_work; original: coll_bind_work calls coll_progress_work
// once after scheduling completes). The planners in this package already
// hold the lock and call progress directly; nothing calls startOp.
func (ep *Endpoint) startOp(op *Op) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.progress(op)
}

// Drive advances every in-flight operation on this endpoint by one round:
// it dispatches whatever is currently ready over t. Callers are expected to
// call Drive repeatedly (e.g. in a loop or on each transport progress tick)
// until all operations of interest have completed.
func (ep *Endpoint) Drive(t Transport) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.drive(t)
}
