package collective

import "encoding/binary"

// joinNegotiationGroupID is the reserved cid namespace every Join uses
// while negotiating a group id for the group under construction; it is
// never itself handed out by finishJoin.
const joinNegotiationGroupID uint16 = 0xFFFF

// Join schedules formation of a new group over ranks: every participant
// BAND-reduces its own candidate-free-id bitmask against every other
// participant's, so the lowest id still free on *all* of them can be
// chosen identically and without further negotiation (spec §7; original:
// coll_join_comp extracts the new group id via ofi_bitmask_get_lsbset and
// clears that bit in the endpoint's coll_cid_mask).
func Join(ep *Endpoint, ranks []Address, ctx any, cb CompletionCallback) (*Op, error) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if !ep.rk.Supports(Uint64, OpBAND) {
		return nil, ErrUnsupported
	}

	group, err := newGroup(ep, ranks, joinNegotiationGroupID)
	if err != nil {
		return nil, err
	}
	if _, ok := group.LocalRank(); !ok {
		return nil, ErrAbsentRank
	}

	words := len(ep.groupMask)
	data := make([]byte, words*8)
	for w := 0; w < words; w++ {
		binary.LittleEndian.PutUint64(data[w*8:], ^ep.groupMask[w]) // 1 bit = candidate free id
	}

	op := createOp(ep, group, KindJoin, 0, ctx, cb)
	op.join.newGroup = group
	op.join.data = data

	scheduleAllReduce(ep, op, group, data, words, Uint64, OpBAND)
	op.join.tmp = op.allreduce.tmp

	op.scheduleCompletion()
	ep.progress(op)
	return op, nil
}

// JoinedGroup returns the group formed by a Join operation, valid once its
// completion callback has run without error. It returns false for any op
// that isn't a completed, successful Join.
func (op *Op) JoinedGroup() (*GroupMC, bool) {
	if op.kind != KindJoin || op.err != nil || op.join.newGroup == nil {
		return nil, false
	}
	return op.join.newGroup, true
}

// finishJoin runs once a Join operation's work queue has fully drained but
// before its Completion item invokes the caller's callback: it picks the
// lowest group id that survived the BAND-reduce, assigns it to the new
// group, and marks it used in this endpoint's local id space.
func (ep *Endpoint) finishJoin(op *Op) {
	data := op.join.data
	chosen := -1
	for w := 0; w*8 < len(data) && chosen < 0; w++ {
		v := binary.LittleEndian.Uint64(data[w*8:])
		if v == 0 {
			continue
		}
		id := w*64 + lsb(v) - 1
		if id < int(joinNegotiationGroupID) {
			chosen = id
		}
	}
	if chosen < 0 {
		op.err = newCollectiveError(ErrGroupIDExhausted, op.localRank(), KindCompletion)
		return
	}
	op.join.newGroup.groupID = uint16(chosen)
	word, bit := chosen/64, chosen%64
	ep.groupMask[word] |= 1 << uint(bit)
}
