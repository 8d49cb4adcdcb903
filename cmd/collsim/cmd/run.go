package cmd

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ygrebnov/workers"

	collective "github.com/opencube-horizon/collective"
	"github.com/opencube-horizon/collective/internal/simnet"
	"github.com/opencube-horizon/collective/metrics"
	"github.com/opencube-horizon/collective/metrics/otelmetrics"
)

// cluster is a fully wired simulated run: one endpoint per rank, all joined
// to World, sharing one metrics provider and one simnet.Network.
type cluster struct {
	net      *simnet.Network
	ranks    []simnet.Rank
	world    []*collective.GroupMC
	shutdown func(context.Context) error
}

func buildCluster(n int) (*cluster, error) {
	var provider metrics.Provider = metrics.NewNoopProvider()
	shutdown := func(context.Context) error { return nil }

	switch strings.ToLower(viper.GetString("metrics")) {
	case "basic":
		provider = metrics.NewBasicProvider()
	case "stdout":
		interval, err := time.ParseDuration(viper.GetString("metrics_interval"))
		if err != nil {
			return nil, fmt.Errorf("invalid --metrics-interval: %w", err)
		}
		p, sd, err := otelmetrics.NewStdout(interval)
		if err != nil {
			return nil, fmt.Errorf("starting stdout metrics exporter: %w", err)
		}
		provider, shutdown = p, sd
	case "none", "":
	default:
		return nil, fmt.Errorf("unknown --metrics provider %q (valid: none, basic, stdout)", viper.GetString("metrics"))
	}

	net := simnet.NewNetwork()
	table := simnet.AddressTable(n)
	c := &cluster{net: net, ranks: make([]simnet.Rank, n), world: make([]*collective.GroupMC, n), shutdown: shutdown}

	for i := 0; i < n; i++ {
		cfg := &collective.Config{MetricsProvider: provider}
		ep, err := collective.NewEndpoint(cfg, simnet.NewAddressVector(i), simnet.ReductionKernel{})
		if err != nil {
			return nil, fmt.Errorf("rank %d: %w", i, err)
		}
		ep.EnableDebugTrace(viper.GetBool("debug"))

		c.ranks[i] = net.AddRank(i, ep)
		g, err := ep.World(table)
		if err != nil {
			return nil, fmt.Errorf("rank %d: joining world: %w", i, err)
		}
		c.world[i] = g
	}
	return c, nil
}

// drain drives every rank concurrently (via workers.ForEach, one call per
// round) and pumps the network between rounds, until done reports true or
// rounds is exhausted.
func (c *cluster) drain(ctx context.Context, rounds int, done func() bool) error {
	for r := 0; r < rounds; r++ {
		if done() {
			return nil
		}
		err := workers.ForEach(ctx, c.ranks, func(ctx context.Context, rk simnet.Rank) error {
			rk.Endpoint.Drive(rk.Transport)
			return nil
		}, workers.WithFixedPool(uint(len(c.ranks))))
		if err != nil {
			return err
		}
		c.net.Pump()
	}
	if !done() {
		return fmt.Errorf("collective did not complete within %d rounds", rounds)
	}
	return nil
}

var (
	flagCount    int
	flagRoot     int
	flagReduceOp string
)

func init() {
	rootCmd.AddCommand(barrierCmd, allreduceCmd, allgatherCmd, scatterCmd, broadcastCmd, joinCmd)

	for _, c := range []*cobra.Command{allreduceCmd, allgatherCmd, scatterCmd, broadcastCmd} {
		c.Flags().IntVar(&flagCount, "count", 4, "elements per rank")
	}
	for _, c := range []*cobra.Command{scatterCmd, broadcastCmd} {
		c.Flags().IntVar(&flagRoot, "root", 0, "root rank")
	}
	allreduceCmd.Flags().StringVar(&flagReduceOp, "reduce-op", "sum", "reduction operator: sum, max, min, band")
}

func parseReduceOp(s string) (collective.ReduceOp, error) {
	switch strings.ToLower(s) {
	case "sum":
		return collective.OpSum, nil
	case "max":
		return collective.OpMax, nil
	case "min":
		return collective.OpMin, nil
	case "band":
		return collective.OpBAND, nil
	default:
		return 0, fmt.Errorf("unknown --reduce-op %q", s)
	}
}

var barrierCmd = &cobra.Command{
	Use:   "barrier",
	Short: "Run a barrier across every simulated rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := viper.GetInt("ranks")
		c, err := buildCluster(n)
		if err != nil {
			return err
		}
		defer c.shutdown(cmd.Context())

		done := make([]bool, n)
		for i := 0; i < n; i++ {
			i := i
			if _, err := collective.Barrier(c.ranks[i].Endpoint, c.world[i], nil, completionGate(&done[i])); err != nil {
				return fmt.Errorf("rank %d: %w", i, err)
			}
		}
		if err := c.drain(cmd.Context(), 64, allTrue(done)); err != nil {
			return err
		}
		fmt.Println("barrier: all ranks released")
		return nil
	},
}

var allreduceCmd = &cobra.Command{
	Use:   "allreduce",
	Short: "Run an all-reduce of uint32 counters across every rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := viper.GetInt("ranks")
		op, err := parseReduceOp(flagReduceOp)
		if err != nil {
			return err
		}
		c, err := buildCluster(n)
		if err != nil {
			return err
		}
		defer c.shutdown(cmd.Context())

		bufs := make([][]byte, n)
		done := make([]bool, n)
		for i := 0; i < n; i++ {
			bufs[i] = make([]byte, 4*flagCount)
			for j := 0; j < flagCount; j++ {
				binary.LittleEndian.PutUint32(bufs[i][j*4:j*4+4], uint32(i+1))
			}
			i := i
			if _, err := collective.AllReduce(c.ranks[i].Endpoint, c.world[i], bufs[i], bufs[i], flagCount, collective.Uint32, op, nil, completionGate(&done[i])); err != nil {
				return fmt.Errorf("rank %d: %w", i, err)
			}
		}
		if err := c.drain(cmd.Context(), 64, allTrue(done)); err != nil {
			return err
		}
		fmt.Printf("allreduce(%s): rank 0 result = %v\n", flagReduceOp, decodeUint32s(bufs[0]))
		return nil
	},
}

var allgatherCmd = &cobra.Command{
	Use:   "allgather",
	Short: "Run an all-gather of one uint32 per rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := viper.GetInt("ranks")
		c, err := buildCluster(n)
		if err != nil {
			return err
		}
		defer c.shutdown(cmd.Context())

		locals := make([][]byte, n)
		results := make([][]byte, n)
		done := make([]bool, n)
		for i := 0; i < n; i++ {
			locals[i] = make([]byte, 4)
			binary.LittleEndian.PutUint32(locals[i], uint32(100+i))
			results[i] = make([]byte, 4*n)
			i := i
			if _, err := collective.AllGather(c.ranks[i].Endpoint, c.world[i], locals[i], results[i], 1, collective.Uint32, nil, completionGate(&done[i])); err != nil {
				return fmt.Errorf("rank %d: %w", i, err)
			}
		}
		if err := c.drain(cmd.Context(), 64, allTrue(done)); err != nil {
			return err
		}
		fmt.Printf("allgather: rank 0 result = %v\n", decodeUint32s(results[0]))
		return nil
	},
}

var scatterCmd = &cobra.Command{
	Use:   "scatter",
	Short: "Scatter a buffer from --root to every rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := viper.GetInt("ranks")
		if flagRoot < 0 || flagRoot >= n {
			return fmt.Errorf("--root %d out of range [0,%d)", flagRoot, n)
		}
		c, err := buildCluster(n)
		if err != nil {
			return err
		}
		defer c.shutdown(cmd.Context())

		sendbuf := make([]byte, 4*n*flagCount)
		for i := 0; i < n*flagCount; i++ {
			binary.LittleEndian.PutUint32(sendbuf[i*4:i*4+4], uint32(1000+i))
		}

		recvbufs := make([][]byte, n)
		done := make([]bool, n)
		for i := 0; i < n; i++ {
			recvbufs[i] = make([]byte, 4*flagCount)
			var sb []byte
			if i == flagRoot {
				sb = sendbuf
			}
			i := i
			if _, err := collective.Scatter(c.ranks[i].Endpoint, c.world[i], sb, recvbufs[i], flagCount, collective.Uint32, flagRoot, nil, completionGate(&done[i])); err != nil {
				return fmt.Errorf("rank %d: %w", i, err)
			}
		}
		if err := c.drain(cmd.Context(), 64, allTrue(done)); err != nil {
			return err
		}
		fmt.Printf("scatter(root=%d): rank %d received %v\n", flagRoot, n-1, decodeUint32s(recvbufs[n-1]))
		return nil
	},
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Broadcast a buffer from --root to every rank",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := viper.GetInt("ranks")
		if flagRoot < 0 || flagRoot >= n {
			return fmt.Errorf("--root %d out of range [0,%d)", flagRoot, n)
		}
		c, err := buildCluster(n)
		if err != nil {
			return err
		}
		defer c.shutdown(cmd.Context())

		bufs := make([][]byte, n)
		done := make([]bool, n)
		for i := 0; i < n; i++ {
			bufs[i] = make([]byte, 4*flagCount)
			if i == flagRoot {
				for j := 0; j < flagCount; j++ {
					binary.LittleEndian.PutUint32(bufs[i][j*4:j*4+4], uint32(7000+j))
				}
			}
			i := i
			if _, err := collective.Broadcast(c.ranks[i].Endpoint, c.world[i], bufs[i], flagCount, collective.Uint32, flagRoot, nil, completionGate(&done[i])); err != nil {
				return fmt.Errorf("rank %d: %w", i, err)
			}
		}
		if err := c.drain(cmd.Context(), 64, allTrue(done)); err != nil {
			return err
		}
		fmt.Printf("broadcast(root=%d): rank %d received %v\n", flagRoot, n-1, decodeUint32s(bufs[n-1]))
		return nil
	},
}

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Form a sub-group over the even-numbered ranks and confirm agreement",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := viper.GetInt("ranks")
		c, err := buildCluster(n)
		if err != nil {
			return err
		}
		defer c.shutdown(cmd.Context())

		var members []int
		for i := 0; i < n; i += 2 {
			members = append(members, i)
		}
		table := make([]collective.Address, len(members))
		for i, r := range members {
			table[i] = c.ranks[r].Address
		}

		ids := make([]uint16, len(members))
		done := make([]bool, len(members))
		for idx, r := range members {
			idx, r := idx, r
			_, err := collective.Join(c.ranks[r].Endpoint, table, nil, func(op *collective.Op, err error) {
				if err == nil {
					if g, ok := op.JoinedGroup(); ok {
						ids[idx] = g.GroupID()
					}
				}
				done[idx] = true
			})
			if err != nil {
				return fmt.Errorf("rank %d: %w", r, err)
			}
		}
		if err := c.drain(cmd.Context(), 64, allTrue(done)); err != nil {
			return err
		}
		fmt.Printf("join: %d ranks agreed on group id %d\n", len(members), ids[0])
		return nil
	},
}

func completionGate(flag *bool) collective.CompletionCallback {
	return func(op *collective.Op, err error) {
		if err != nil {
			fmt.Printf("operation %s failed: %v\n", op.TraceID, err)
		}
		*flag = true
	}
}

func allTrue(flags []bool) func() bool {
	return func() bool {
		for _, f := range flags {
			if !f {
				return false
			}
		}
		return true
	}
}

func decodeUint32s(buf []byte) []uint32 {
	out := make([]uint32, len(buf)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return out
}
