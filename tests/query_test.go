package tests

import (
	"testing"

	collective "github.com/opencube-horizon/collective"
	"github.com/stretchr/testify/require"
)

func TestQuerySupportMatrix(t *testing.T) {
	rk := ReductionKernel{}

	for _, kind := range []collective.OpKind{
		collective.KindBarrier,
		collective.KindAllGather,
		collective.KindScatter,
		collective.KindBroadcast,
		collective.KindJoin,
	} {
		_, err := collective.Query(rk, kind, collective.Uint32, collective.OpSum)
		require.NoError(t, err, "%s should always be reported supported", kind)
	}

	_, err := collective.Query(rk, collective.KindAllReduce, collective.Uint32, collective.OpSum)
	require.NoError(t, err)

	_, err = collective.Query(rk, collective.KindAllReduce, collective.Float32, collective.OpSum)
	require.ErrorIs(t, err, collective.ErrUnsupported)
}
