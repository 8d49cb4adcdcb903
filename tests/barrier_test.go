package tests

import (
	"testing"

	collective "github.com/opencube-horizon/collective"
	"github.com/stretchr/testify/require"
)

func TestBarrierCompletesAllMembers(t *testing.T) {
	const n = 4
	c, err := NewCluster(n)
	require.NoError(t, err)

	done := make([]bool, n)
	for i := 0; i < n; i++ {
		i := i
		_, err := collective.Barrier(c.Ranks[i].Endpoint, c.World[i], nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				done[i] = true
			})
		require.NoError(t, err)
	}

	Drain(c.Ranks, c.Net, 32)

	for i := 0; i < n; i++ {
		require.True(t, done[i], "rank %d did not complete", i)
	}
}

// TestBarrierConcurrentWithAllReduce checks that a Barrier and an AllReduce
// scheduled back to back on the same group both complete on every rank. Both
// ride the same recursive-halving schedule over the same group and are kept
// apart only by their distinct cids, and so distinct wire tags.
func TestBarrierConcurrentWithAllReduce(t *testing.T) {
	const n = 4
	c, err := NewCluster(n)
	require.NoError(t, err)

	barrierDone := make([]bool, n)
	reduceDone := make([]bool, n)
	sums := make([][]byte, n)

	for i := 0; i < n; i++ {
		i := i
		_, err := collective.Barrier(c.Ranks[i].Endpoint, c.World[i], nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				barrierDone[i] = true
			})
		require.NoError(t, err)

		sums[i] = make([]byte, 4)
		_, err = collective.AllReduce(c.Ranks[i].Endpoint, c.World[i], sums[i], sums[i], 1, collective.Uint32, collective.OpSum, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				reduceDone[i] = true
			})
		require.NoError(t, err)
	}

	Drain(c.Ranks, c.Net, 32)

	for i := 0; i < n; i++ {
		require.True(t, barrierDone[i], "rank %d barrier did not complete", i)
		require.True(t, reduceDone[i], "rank %d allreduce did not complete", i)
	}
}
