package collective

import "container/list"

// workQueue is an operation's ordered work-item queue: insertion order is
// preserved for the operation's lifetime (spec §3 invariant 1), and the
// reaper needs O(1) removal from anywhere in the list, not just the head
// (spec §9 Design Notes). container/list gives both for free; the teacher's
// own fifo.go names the equivalent "simple FIFO" role for task[R] channels,
// but a channel cannot be scanned or spliced from the middle, so the
// underlying structure here is the doubly linked list the design notes
// call for instead.
type workQueue struct {
	l *list.List
}

func newWorkQueue() *workQueue {
	return &workQueue{l: list.New()}
}

// pushBack appends item to the queue tail and records its list node on the
// item's header so remove can later find it in O(1).
func (q *workQueue) pushBack(item WorkItem) {
	h := item.header()
	h.elem = q.l.PushBack(item)
}

// front returns the head item, or nil if the queue is empty.
func (q *workQueue) front() WorkItem {
	e := q.l.Front()
	if e == nil {
		return nil
	}
	return e.Value.(WorkItem)
}

// isHead reports whether item is currently the queue head.
func (q *workQueue) isHead(item WorkItem) bool {
	return q.l.Front() == item.header().elem
}

// prev returns the item immediately preceding item in queue order, or nil
// if item is the head.
func (q *workQueue) prev(item WorkItem) WorkItem {
	e := item.header().elem.Prev()
	if e == nil {
		return nil
	}
	return e.Value.(WorkItem)
}

// next returns the item immediately following item in queue order, or nil
// if item is the tail.
func (q *workQueue) next(item WorkItem) WorkItem {
	e := item.header().elem.Next()
	if e == nil {
		return nil
	}
	return e.Value.(WorkItem)
}

// remove removes item from the queue. Safe to call once per item.
func (q *workQueue) remove(item WorkItem) {
	h := item.header()
	if h.elem == nil {
		return
	}
	q.l.Remove(h.elem)
	h.elem = nil
}

// empty reports whether the queue has no items left.
func (q *workQueue) empty() bool { return q.l.Len() == 0 }

// len reports the number of items currently queued.
func (q *workQueue) len() int { return q.l.Len() }
