package collective

import "sync"

// lifecycleCoordinator orchestrates Endpoint shutdown: abort whatever
// operations are still in flight, then drop the ready queue and group-id
// state; the work-item pool is left as it is. It is a
// wiring helper; it doesn't own the ready queue or activeOps map, only
// the sequencing (mirrors the teacher library's lifecycleCoordinator,
// adapted from a goroutine-draining sequence to a single-threaded abort,
// since an Endpoint runs no background goroutines of its own).
//
// Close is safe for concurrent calls; the sequence runs exactly once.
type lifecycleCoordinator struct {
	ep   *Endpoint
	once sync.Once
}

func newLifecycleCoordinator(ep *Endpoint) *lifecycleCoordinator {
	return &lifecycleCoordinator{ep: ep}
}

// Close executes the shutdown sequence exactly once:
//  1. abort every still-active operation, delivering ErrClosed to its
//     completion callback
//  2. drop the ready queue and group-id state
func (lc *lifecycleCoordinator) Close() {
	lc.once.Do(func() {
		ep := lc.ep
		for op := range ep.activeOps {
			if op.err == nil {
				op.err = newCollectiveError(ErrClosed, op.localRank(), KindCompletion)
			}
			if op.complete != nil {
				op.complete(op, op.err)
			}
			op.destroy()
		}
		ep.activeOps = nil
		ep.ready = nil
		ep.groupMask = nil
	})
}

// Close shuts the endpoint down: every operation still in flight has its
// completion callback invoked with ErrClosed, then all endpoint state is
// released. Close is idempotent and safe to call more than once.
func (ep *Endpoint) Close() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.lifecycle.Close()
	return nil
}
