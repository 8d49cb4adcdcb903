package tests

import (
	"encoding/binary"
	"testing"

	collective "github.com/opencube-horizon/collective"
	"github.com/stretchr/testify/require"
)

func TestAllGatherRing(t *testing.T) {
	const n = 8
	c, err := NewCluster(n)
	require.NoError(t, err)

	locals := make([][]byte, n)
	results := make([][]byte, n)
	done := make([]bool, n)
	for i := 0; i < n; i++ {
		locals[i] = make([]byte, 4)
		binary.LittleEndian.PutUint32(locals[i], uint32(100+i))
		results[i] = make([]byte, 4*n)
		i := i
		_, err := collective.AllGather(c.Ranks[i].Endpoint, c.World[i], locals[i], results[i], 1, collective.Uint32, nil,
			func(op *collective.Op, err error) {
				require.NoError(t, err)
				done[i] = true
			})
		require.NoError(t, err)
	}

	Drain(c.Ranks, c.Net, 64)

	for i := 0; i < n; i++ {
		require.True(t, done[i], "rank %d did not complete", i)
		for j := 0; j < n; j++ {
			got := binary.LittleEndian.Uint32(results[i][j*4 : j*4+4])
			require.Equal(t, uint32(100+j), got, "rank %d slot %d", i, j)
		}
	}
}
