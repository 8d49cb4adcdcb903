// Package tests exercises the collective engine end to end over an
// in-memory simulated network of N ranks, in the style of the teacher
// library's local test doubles (fifo_local_test_impl.go): a hand-rolled
// collaborator that satisfies the production interfaces without any real
// I/O, so the engine's scheduling logic can be driven deterministically.
package tests

import (
	"sync"

	collective "github.com/opencube-horizon/collective"
)

// rankAddress is the simulated transport address: just the absolute rank
// index into the Network's endpoint table.
type rankAddress int

// addressVector resolves a group's rank table, where each entry is a
// rankAddress, against the calling endpoint's own absolute rank.
type addressVector struct {
	self rankAddress
}

// NewAddressVector builds the AddressVector collaborator for the endpoint
// bound to the given absolute rank.
func NewAddressVector(self int) collective.AddressVector {
	return addressVector{self: rankAddress(self)}
}

func (a addressVector) Lookup(table []collective.Address, rank int) collective.Address {
	return table[rank]
}

func (a addressVector) LocalRank(table []collective.Address) (int, bool) {
	for i, addr := range table {
		if addr.(rankAddress) == a.self {
			return i, true
		}
	}
	return 0, false
}

// pendingXfer is a posted send or receive waiting for its counterpart.
type pendingXfer struct {
	rank  rankAddress
	item  collective.WorkItem
	buf   []byte
	count int
	dt    collective.Datatype
}

type xferKey struct {
	rank rankAddress
	tag  uint64
}

// Network is a fully in-process simulated transport shared by every rank in
// a test. Posts never block and never fail; matching and data movement
// happen only when Pump is called, which is what keeps endpoint-owned
// locks from ever being re-entered (an Endpoint's own dispatch holds its
// lock while calling SendTagged/RecvTagged, so any callback those calls
// trigger synchronously would deadlock against that same lock).
type Network struct {
	mu        sync.Mutex
	endpoints map[rankAddress]*collective.Endpoint
	sendQ     map[xferKey][]*pendingXfer
	recvQ     map[xferKey][]*pendingXfer
}

// NewNetwork constructs an empty simulated network.
func NewNetwork() *Network {
	return &Network{
		endpoints: make(map[rankAddress]*collective.Endpoint),
		sendQ:     make(map[xferKey][]*pendingXfer),
		recvQ:     make(map[xferKey][]*pendingXfer),
	}
}

// Rank is one simulated participant: its endpoint plus the Transport view
// bound to its own rank, ready to pass to (*collective.Endpoint).Drive.
type Rank struct {
	Endpoint  *collective.Endpoint
	Transport collective.Transport
	Address   collective.Address
}

// AddRank registers rank as a new participant and returns its Rank handle.
func (n *Network) AddRank(rank int, ep *collective.Endpoint) Rank {
	n.mu.Lock()
	n.endpoints[rankAddress(rank)] = ep
	n.mu.Unlock()
	return Rank{
		Endpoint:  ep,
		Transport: &transportView{net: n, self: rankAddress(rank)},
		Address:   rankAddress(rank),
	}
}

// AddressTable builds a group rank table out of n simulated ranks 0..n-1.
func AddressTable(n int) []collective.Address {
	table := make([]collective.Address, n)
	for i := range table {
		table[i] = rankAddress(i)
	}
	return table
}

type transportView struct {
	net  *Network
	self rankAddress
}

func (t *transportView) SendTagged(addr collective.Address, tag uint64, buf []byte, count int, dt collective.Datatype, ctx collective.WorkItem) collective.TransportStatus {
	return t.net.post(t.net.sendQ, addr.(rankAddress), t.self, tag, buf, count, dt, ctx)
}

func (t *transportView) RecvTagged(addr collective.Address, tag uint64, buf []byte, count int, dt collective.Datatype, ctx collective.WorkItem) collective.TransportStatus {
	return t.net.post(t.net.recvQ, t.self, t.self, tag, buf, count, dt, ctx)
}

func (n *Network) post(q map[xferKey][]*pendingXfer, keyRank, ownerRank rankAddress, tag uint64, buf []byte, count int, dt collective.Datatype, ctx collective.WorkItem) collective.TransportStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	k := xferKey{keyRank, tag}
	q[k] = append(q[k], &pendingXfer{rank: ownerRank, item: ctx, buf: buf, count: count, dt: dt})
	return collective.StatusOK
}

// Pump matches every outstanding (send, recv) pair sharing the same
// (destination rank, tag) key, moves the bytes, and delivers completion to
// both sides. Call it after a round of Drive calls across all ranks.
func (n *Network) Pump() {
	n.mu.Lock()
	type delivery struct {
		ep   *collective.Endpoint
		item collective.WorkItem
	}
	var deliveries []delivery

	for k, sends := range n.sendQ {
		recvs := n.recvQ[k]
		for len(sends) > 0 && len(recvs) > 0 {
			s, r := sends[0], recvs[0]
			sends, recvs = sends[1:], recvs[1:]
			m := len(s.buf)
			if len(r.buf) < m {
				m = len(r.buf)
			}
			copy(r.buf[:m], s.buf[:m])
			deliveries = append(deliveries,
				delivery{n.endpoints[s.rank], s.item},
				delivery{n.endpoints[r.rank], r.item},
			)
		}
		n.sendQ[k] = sends
		n.recvQ[k] = recvs
	}
	n.mu.Unlock()

	for _, d := range deliveries {
		d.ep.OnXferComplete(d.item)
	}
}

// Cluster is a fully wired set of n simulated ranks sharing one Network and
// one World group, ready for collectives to be scheduled against.
type Cluster struct {
	Net   *Network
	Ranks []Rank
	World []*collective.GroupMC
}

// NewCluster builds n endpoints over a shared simulated network, each
// already joined to the World group (group id 0, every rank a member).
func NewCluster(n int) (*Cluster, error) {
	net := NewNetwork()
	table := AddressTable(n)
	c := &Cluster{Net: net, Ranks: make([]Rank, n), World: make([]*collective.GroupMC, n)}

	for i := 0; i < n; i++ {
		ep, err := collective.NewEndpoint(nil, NewAddressVector(i), ReductionKernel{})
		if err != nil {
			return nil, err
		}
		c.Ranks[i] = net.AddRank(i, ep)
		g, err := ep.World(table)
		if err != nil {
			return nil, err
		}
		c.World[i] = g
	}
	return c, nil
}

// Drain repeatedly drives every rank and pumps the network until rounds
// have elapsed, giving every scheduled operation time to complete. Tests
// size rounds generously relative to the collective's expected step count.
func Drain(ranks []Rank, net *Network, rounds int) {
	for i := 0; i < rounds; i++ {
		for _, r := range ranks {
			r.Endpoint.Drive(r.Transport)
		}
		net.Pump()
	}
}
