package collective

// GroupMC represents a collective group: an immutable, ordered rank-to-
// address table plus the identifiers needed to name collectives over it
// (spec §3). A group exclusively owns its rank table for its lifetime; it is
// created on join and destroyed on Close.
type GroupMC struct {
	ep *Endpoint

	// ranks is the ordered rank-to-address table. Immutable after creation.
	ranks []Address

	// localRank is this endpoint's index into ranks, or -1 if absent.
	localRank int

	// groupID is the 16-bit id assigned at join.
	groupID uint16

	// seq is the 16-bit monotonically increasing per-group sequence
	// counter, incremented only by nextCID under the endpoint lock.
	seq uint16
}

// newGroup constructs a GroupMC from a rank table already resolved by the
// caller's AddressVector. groupID is 0 for the bootstrap (world) group and
// assigned by finishJoin, when the Join completes, for any group created via
// Join.
func newGroup(ep *Endpoint, ranks []Address, groupID uint16) (*GroupMC, error) {
	if len(ranks) > maxMembers {
		return nil, ErrUnsupported
	}
	local, ok := ep.av.LocalRank(ranks)
	if !ok {
		local = -1
	}
	return &GroupMC{
		ep:        ep,
		ranks:     ranks,
		localRank: local,
		groupID:   groupID,
	}, nil
}

// Size returns the number of ranks in the group.
func (g *GroupMC) Size() int { return len(g.ranks) }

// LocalRank returns this endpoint's rank within the group, or false if the
// endpoint is absent from the group.
func (g *GroupMC) LocalRank() (int, bool) {
	if g.localRank < 0 {
		return 0, false
	}
	return g.localRank, true
}

// GroupID returns the group's 16-bit identifier.
func (g *GroupMC) GroupID() uint16 { return g.groupID }

// addressOf resolves rank to a transport address via the endpoint's address
// vector collaborator.
func (g *GroupMC) addressOf(rank int) Address {
	return g.ep.av.Lookup(g.ranks, rank)
}

// Close releases the group. The rank table is dropped and the group id is
// freed for a future Join to hand out again; in-flight operations already
// hold their own reference to the group and are unaffected.
func (g *GroupMC) Close() error {
	g.ep.mu.Lock()
	g.ep.freeGroupID(g.groupID)
	g.ep.mu.Unlock()
	g.ranks = nil
	return nil
}
