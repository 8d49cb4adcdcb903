package tests

import (
	"encoding/binary"
	"testing"

	collective "github.com/opencube-horizon/collective"
	"github.com/stretchr/testify/require"
)

func TestAllReduceSumPowerOfTwo(t *testing.T) {
	const n = 4
	c, err := NewCluster(n)
	require.NoError(t, err)

	bufs := make([][]byte, n)
	done := make([]bool, n)
	for i := 0; i < n; i++ {
		bufs[i] = make([]byte, 8)
		binary.LittleEndian.PutUint64(bufs[i], uint64(i+1))
		i := i
		_, err := collective.AllReduce(c.Ranks[i].Endpoint, c.World[i], bufs[i], bufs[i], 1, collective.Uint64, collective.OpSum, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				done[i] = true
			})
		require.NoError(t, err)
	}

	Drain(c.Ranks, c.Net, 32)

	for i := 0; i < n; i++ {
		require.True(t, done[i], "rank %d did not complete", i)
		require.Equal(t, uint64(1+2+3+4), binary.LittleEndian.Uint64(bufs[i]))
	}
}

func TestAllReduceBANDNonPowerOfTwo(t *testing.T) {
	const n = 5
	c, err := NewCluster(n)
	require.NoError(t, err)

	bufs := make([][]byte, n)
	done := make([]bool, n)
	for i := 0; i < n; i++ {
		bufs[i] = make([]byte, 4)
		binary.LittleEndian.PutUint32(bufs[i], 0xFFFFFFFF&^(1<<uint(i)))
		i := i
		_, err := collective.AllReduce(c.Ranks[i].Endpoint, c.World[i], bufs[i], bufs[i], 1, collective.Uint32, collective.OpBAND, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				done[i] = true
			})
		require.NoError(t, err)
	}

	Drain(c.Ranks, c.Net, 32)

	for i := 0; i < n; i++ {
		require.True(t, done[i], "rank %d did not complete", i)
		require.Equal(t, uint32(0xFFFFFFE0), binary.LittleEndian.Uint32(bufs[i]))
	}
}
