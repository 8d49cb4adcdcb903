package collective

// QueryAttr reports what a collective supports (spec §6; original:
// coll_query_collective / fi_collective_attr).
type QueryAttr struct {
	// MaxMembers is the hard ceiling on group size for any collective,
	// fixed by the width of the rank field packed into a wire tag.
	MaxMembers int
}

// Query reports whether kind is supported over the given (datatype, op)
// pair, and if so, the attributes that apply to it. For kinds that carry no
// reduction (everything but all-reduce), dt and rop are ignored.
func Query(rk ReductionKernel, kind OpKind, dt Datatype, rop ReduceOp) (QueryAttr, error) {
	switch kind {
	case KindAllReduce:
		if !rk.Supports(dt, rop) {
			return QueryAttr{}, ErrUnsupported
		}
	case KindBarrier, KindAllGather, KindScatter, KindBroadcast, KindJoin:
		// datatype and reduction operator are not meaningful for these.
	default:
		return QueryAttr{}, ErrUnsupported
	}
	return QueryAttr{MaxMembers: maxMembers}, nil
}
