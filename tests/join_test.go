package tests

import (
	"testing"

	collective "github.com/opencube-horizon/collective"
	"github.com/stretchr/testify/require"
)

// TestJoinAgreesOnGroupID checks every participant in a Join independently
// derives the same new group id from the distributed free-id BAND-reduce,
// without any further negotiation round.
func TestJoinAgreesOnGroupID(t *testing.T) {
	const n = 6
	c, err := NewCluster(n)
	require.NoError(t, err)

	members := []int{0, 1, 3, 5}
	table := make([]collective.Address, len(members))
	for i, r := range members {
		table[i] = c.Ranks[r].Address
	}

	ids := make([]uint16, len(members))
	done := make([]bool, len(members))
	for idx, r := range members {
		idx, r := idx, r
		_, err := collective.Join(c.Ranks[r].Endpoint, table, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				g, ok := op.JoinedGroup()
				require.True(t, ok)
				ids[idx] = g.GroupID()
				done[idx] = true
			})
		require.NoError(t, err)
	}

	Drain(c.Ranks, c.Net, 32)

	for idx := range members {
		require.True(t, done[idx], "member %d did not complete join", idx)
	}
	for idx := 1; idx < len(members); idx++ {
		require.Equal(t, ids[0], ids[idx], "member %d chose a different group id than member 0", idx)
	}
	require.NotEqual(t, uint16(0), ids[0], "join must not hand out the reserved World group id")
}

// TestJoinThenAllReduceOnNewGroup checks the group returned by Join is
// immediately usable for a collective scoped to just its members.
func TestJoinThenAllReduceOnNewGroup(t *testing.T) {
	const n = 5
	c, err := NewCluster(n)
	require.NoError(t, err)

	members := []int{0, 2, 4}
	table := make([]collective.Address, len(members))
	for i, r := range members {
		table[i] = c.Ranks[r].Address
	}

	groups := make([]*collective.GroupMC, len(members))
	joined := make([]bool, len(members))
	for idx, r := range members {
		idx, r := idx, r
		_, err := collective.Join(c.Ranks[r].Endpoint, table, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				g, ok := op.JoinedGroup()
				require.True(t, ok)
				groups[idx] = g
				joined[idx] = true
			})
		require.NoError(t, err)
	}
	Drain(c.Ranks, c.Net, 32)
	for idx := range members {
		require.True(t, joined[idx])
	}

	bufs := make([][]byte, len(members))
	reduced := make([]bool, len(members))
	for idx, r := range members {
		idx, r := idx, r
		bufs[idx] = make([]byte, 4)
		bufs[idx][0] = 1
		_, err := collective.AllReduce(c.Ranks[r].Endpoint, groups[idx], bufs[idx], bufs[idx], 1, collective.Uint32, collective.OpSum, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				reduced[idx] = true
			})
		require.NoError(t, err)
	}
	Drain(c.Ranks, c.Net, 32)

	for idx := range members {
		require.True(t, reduced[idx], "member %d allreduce on joined group did not complete", idx)
	}
}
