// Package simnet is an in-process simulated Transport/AddressVector pair: a
// demonstration collaborator for cmd/collsim, not a real wire transport.
// Every rank lives in the same process; sends and receives are matched in
// memory by (destination rank, tag).
package simnet

import (
	"sync"

	collective "github.com/opencube-horizon/collective"
)

type rankAddress int

// AddressVector resolves rank addresses against one endpoint's own rank.
type AddressVector struct {
	self rankAddress
}

// NewAddressVector builds the AddressVector for the endpoint at self.
func NewAddressVector(self int) AddressVector {
	return AddressVector{self: rankAddress(self)}
}

func (a AddressVector) Lookup(table []collective.Address, rank int) collective.Address {
	return table[rank]
}

func (a AddressVector) LocalRank(table []collective.Address) (int, bool) {
	for i, addr := range table {
		if addr.(rankAddress) == a.self {
			return i, true
		}
	}
	return 0, false
}

// AddressTable builds a group rank table out of n simulated ranks 0..n-1.
func AddressTable(n int) []collective.Address {
	table := make([]collective.Address, n)
	for i := range table {
		table[i] = rankAddress(i)
	}
	return table
}

type pendingXfer struct {
	rank rankAddress
	item collective.WorkItem
	buf  []byte
}

type xferKey struct {
	rank rankAddress
	tag  uint64
}

// Network is the shared in-memory matching table every rank's Transport view
// posts into. Posting never blocks; Pump performs the actual matching and
// delivers completions, and must be called outside of any Endpoint's Drive.
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

// Rank bundles one participant's endpoint with its bound Transport view.
type Rank struct {
	Index     int
	Endpoint  *collective.Endpoint
	Transport collective.Transport
	Address   collective.Address
}

// AddRank registers a new participant and returns its Rank handle.
func (n *Network) AddRank(index int, ep *collective.Endpoint) Rank {
	n.mu.Lock()
	n.endpoints[rankAddress(index)] = ep
	n.mu.Unlock()
	return Rank{
		Index:     index,
		Endpoint:  ep,
		Transport: &transportView{net: n, self: rankAddress(index)},
		Address:   rankAddress(index),
	}
}

type transportView struct {
	net  *Network
	self rankAddress
}

func (t *transportView) SendTagged(addr collective.Address, tag uint64, buf []byte, count int, dt collective.Datatype, ctx collective.WorkItem) collective.TransportStatus {
	return t.net.post(t.net.sendQ, addr.(rankAddress), t.self, tag, buf, ctx)
}

func (t *transportView) RecvTagged(_ collective.Address, tag uint64, buf []byte, count int, dt collective.Datatype, ctx collective.WorkItem) collective.TransportStatus {
	return t.net.post(t.net.recvQ, t.self, t.self, tag, buf, ctx)
}

func (n *Network) post(q map[xferKey][]*pendingXfer, keyRank, ownerRank rankAddress, tag uint64, buf []byte, ctx collective.WorkItem) collective.TransportStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	k := xferKey{keyRank, tag}
	q[k] = append(q[k], &pendingXfer{rank: ownerRank, item: ctx, buf: buf})
	return collective.StatusOK
}

// Pump matches every outstanding send against a receive sharing its
// (destination, tag) key, copies the bytes, and delivers completion to both
// endpoints. Call it once per round, after every rank has been driven.
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
