package tests

import (
	"encoding/binary"
	"testing"

	collective "github.com/opencube-horizon/collective"
	"github.com/stretchr/testify/require"
)

func TestBroadcastNonZeroRoot(t *testing.T) {
	const n = 4
	const root = 2
	const count = 10
	c, err := NewCluster(n)
	require.NoError(t, err)

	bufs := make([][]byte, n)
	done := make([]bool, n)
	for i := 0; i < n; i++ {
		bufs[i] = make([]byte, count*4)
		if i == root {
			for j := 0; j < count; j++ {
				binary.LittleEndian.PutUint32(bufs[i][j*4:j*4+4], uint32(7000+j))
			}
		}
		i := i
		_, err := collective.Broadcast(c.Ranks[i].Endpoint, c.World[i], bufs[i], count, collective.Uint32, root, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				done[i] = true
			})
		require.NoError(t, err)
	}

	Drain(c.Ranks, c.Net, 64)

	for i := 0; i < n; i++ {
		require.True(t, done[i], "rank %d did not complete", i)
		for j := 0; j < count; j++ {
			got := binary.LittleEndian.Uint32(bufs[i][j*4 : j*4+4])
			require.Equal(t, uint32(7000+j), got, "rank %d elem %d", i, j)
		}
	}
}
