package tests

import (
	"encoding/binary"
	"testing"

	collective "github.com/opencube-horizon/collective"
	"github.com/stretchr/testify/require"
)

func TestScatterNonZeroRoot(t *testing.T) {
	const n = 6
	const root = 3
	c, err := NewCluster(n)
	require.NoError(t, err)

	sendbuf := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(sendbuf[i*4:i*4+4], uint32(1000+i))
	}

	recvbufs := make([][]byte, n)
	done := make([]bool, n)
	for i := 0; i < n; i++ {
		recvbufs[i] = make([]byte, 4)
		var sb []byte
		if i == root {
			sb = sendbuf
		}
		i := i
		_, err := collective.Scatter(c.Ranks[i].Endpoint, c.World[i], sb, recvbufs[i], 1, collective.Uint32, root, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				done[i] = true
			})
		require.NoError(t, err)
	}

	Drain(c.Ranks, c.Net, 64)

	for i := 0; i < n; i++ {
		require.True(t, done[i], "rank %d did not complete", i)
		require.Equal(t, uint32(1000+i), binary.LittleEndian.Uint32(recvbufs[i]))
	}
}
