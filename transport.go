package collective

// Datatype identifies the wire/reduction element type of a buffer. The core
// does not interpret datatypes itself; it only asks the ReductionKernel for
// their size and passes them through to Transport and ReductionKernel calls.
type Datatype int

// Fixed datatype set recognized by the reduction kernel contract (spec §6).
const (
	Uint8 Datatype = iota
	Uint32
	Uint64
	Int32
	Int64
	Float32
	Float64
)

// ReduceOp identifies a reduction operator. The supported range is
// [OpMin, OpBXOR], matching the original's FI_MIN..FI_BXOR span (spec §7,
// §6): a ReductionKernel may support any subset of (Datatype, ReduceOp)
// pairs within that range, reported through Query.
type ReduceOp int

const (
	OpMin ReduceOp = iota
	OpMax
	OpSum
	OpProd
	OpLOR
	OpLAND
	OpBOR
	OpBAND
	OpLXOR
	OpBXOR
)

// TransportStatus is the synchronous result of a send/recv post.
type TransportStatus int

const (
	// StatusOK means the transfer was accepted and will complete
	// asynchronously via a callback to Endpoint.OnXferComplete/OnXferError.
	StatusOK TransportStatus = iota
	// StatusRetry means the transfer was rejected by transient
	// backpressure; the caller should re-queue and try again later.
	StatusRetry
	// StatusError means the transfer failed synchronously.
	StatusError
)

// Transport is the point-to-point tagged-message collaborator the core
// schedules against. It is supplied by the caller; the core never implements
// it. Sends and receives return synchronously with an accept/retry/error
// status; completion and error are reported asynchronously through the
// Endpoint's OnXferComplete / OnXferError callbacks, keyed by the WorkItem
// passed in ctx.
type Transport interface {
	// SendTagged posts an asynchronous tagged send of buf[:count] (in units
	// of datatype) to addr under tag. ctx identifies the work item and is
	// returned verbatim to the matching completion/error callback.
	SendTagged(addr Address, tag uint64, buf []byte, count int, dt Datatype, ctx WorkItem) TransportStatus

	// RecvTagged posts an asynchronous tagged receive of buf[:count] (in
	// units of datatype) from addr under tag.
	RecvTagged(addr Address, tag uint64, buf []byte, count int, dt Datatype, ctx WorkItem) TransportStatus
}

// Address is an opaque transport-level peer handle, as returned by
// AddressVector.
type Address any

// AddressVector maps rank indices to transport addresses.
type AddressVector interface {
	// Lookup returns the transport address of rank in the given table.
	Lookup(table []Address, rank int) Address

	// LocalRank returns the calling endpoint's index into table, or false
	// if it is not a member (spec §3: local_rank may be "absent").
	LocalRank(table []Address) (int, bool)
}

// ReductionKernel performs in-place elementwise reduction on typed buffers
// and reports which (Datatype, ReduceOp) pairs and sizes it supports.
type ReductionKernel interface {
	// Reduce applies inout[i] = op(inout[i], in[i]) elementwise over count
	// elements of datatype dt.
	Reduce(op ReduceOp, dt Datatype, inout, in []byte, count int) error

	// DatatypeSize returns the size in bytes of one element of dt.
	DatatypeSize(dt Datatype) int

	// Supports reports whether the kernel can reduce dt with op.
	Supports(dt Datatype, op ReduceOp) bool
}

// lsb returns the 1-indexed position of the least significant set bit of v,
// per spec §6 (lsb(u64) -> position of least significant set bit,
// 1-indexed). lsb(0) is undefined and returns 0.
func lsb(v uint64) int {
	if v == 0 {
		return 0
	}
	pos := 1
	for v&1 == 0 {
		v >>= 1
		pos++
	}
	return pos
}
