package pool

// Pool is an interface that defines methods on a pool of reusable work items.
type Pool interface {
	// Get returns a work item from the pool.
	Get() interface{}

	// Put returns a work item back to the pool.
	Put(interface{})
}
