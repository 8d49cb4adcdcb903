package tests

import (
	"fmt"
	"testing"

	collective "github.com/opencube-horizon/collective"
	"github.com/stretchr/testify/require"
)

// TestScatterBinomialSplitNeverEmpty exhaustively checks, for every group
// size up to 64 and a spread of roots, that planning a Scatter never hits
// the "send_cnt must be positive" invariant scatter.go carries forward from
// the original's assert(send_cnt>0): the binomial split it implements must
// always produce a non-empty subtree for every destination the send loop
// actually reaches.
func TestScatterBinomialSplitNeverEmpty(t *testing.T) {
	for n := 1; n <= 64; n++ {
		n := n
		roots := map[int]struct{}{0: {}, n - 1: {}, n / 2: {}}
		for root := range roots {
			root := root
			t.Run(fmt.Sprintf("n=%d/root=%d", n, root), func(t *testing.T) {
				c, err := NewCluster(n)
				require.NoError(t, err)

				sendbuf := make([]byte, 4*n)
				for i := 0; i < n; i++ {
					sendbuf[i*4] = byte(i)
				}

				for i := 0; i < n; i++ {
					var sb []byte
					if i == root {
						sb = sendbuf
					}
					recvbuf := make([]byte, 4)
					require.NotPanics(t, func() {
						_, err := collective.Scatter(c.Ranks[i].Endpoint, c.World[i], sb, recvbuf, 1, collective.Uint32, root, nil,
							func(op *collective.Op, err error) {})
						require.NoError(t, err)
					})
				}
			})
		}
	}
}
