package alg

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tandemgraph/tandem/device"
	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

func TestBFSDepthsMatchDijkstra(t *testing.T) {
	for _, directed := range []bool{true, false} {
		for seed := int64(1); seed <= 4; seed++ {
			g := graph.RandomUniform(40, 160, seed, directed)
			r, err := RunBFS(context.Background(), g, 0, engine.HostPlan(3))
			require.NoError(t, err)
			require.Equal(t, engine.Converged, r.Outcome())

			require.Equal(t, oracleDistances(g, 0), depthValues(r.Gather()))
		}
	}
}

func TestBFSAcrossPlans(t *testing.T) {
	split := engine.SplitPlan(1, 2, 0.5)
	split.Pool = device.NewPool(2)
	split.Grain = 8

	g := graph.Star(17, false)
	want := []uint32{0}
	for v := 1; v < 17; v++ {
		want = append(want, 1)
	}
	for _, plan := range []engine.Plan{engine.HostPlan(1), engine.HostPlan(4), split} {
		r, err := RunBFS(context.Background(), g, 0, plan)
		require.NoError(t, err)
		require.Equal(t, want, r.Gather())
	}
}

func TestBFSLongChainBothEnds(t *testing.T) {
	g := graph.Chain(1000, false)
	mixed := engine.SplitPlan(2, 2, 0.5)
	mixed.Pool = device.NewPool(2)

	for _, src := range []uint32{0, 999} {
		want := make([]uint32, 1000)
		for v := uint32(0); v < 1000; v++ {
			if v > src {
				want[v] = v - src
			} else {
				want[v] = src - v
			}
		}
		single, err := RunBFS(context.Background(), g, src, engine.HostPlan(1))
		require.NoError(t, err)
		require.Equal(t, want, single.Gather(), "source %d", src)

		split, err := RunBFS(context.Background(), g, src, mixed)
		require.NoError(t, err)
		require.Equal(t, want, split.Gather(), "source %d split", src)
	}
}

func TestBFSCompleteGraphOneHop(t *testing.T) {
	g := graph.Complete(300, true)
	for _, src := range []uint32{0, 157, 299} {
		r, err := RunBFS(context.Background(), g, src, engine.HostPlan(4))
		require.NoError(t, err)
		for v, d := range r.Gather() {
			want := uint32(1)
			if uint32(v) == src {
				want = 0
			}
			require.Equal(t, want, d, "source %d vertex %d", src, v)
		}
	}
}

func TestBFSLeavesUnreachedAtSentinel(t *testing.T) {
	// Directed chain searched from the middle: everything behind stays put.
	g := graph.Chain(5, true)
	r, err := RunBFS(context.Background(), g, 2, engine.HostPlan(2))
	require.NoError(t, err)
	require.Equal(t, []uint32{notReached, notReached, 0, 1, 2}, r.Gather())
}

func TestBFSSourceOutOfRange(t *testing.T) {
	g := graph.Chain(4, true)
	_, err := RunBFS(context.Background(), g, 4, engine.HostPlan(1))
	require.ErrorIs(t, err, engine.ErrVertexRange)
}

func TestBFSRegistryReport(t *testing.T) {
	spec, err := Lookup("bfs")
	require.NoError(t, err)
	require.True(t, spec.NeedsSource)

	g := graph.Chain(4, true)
	rep, err := spec.Run(context.Background(), g, Params{Source: 1}, engine.HostPlan(2))
	require.NoError(t, err)
	require.Equal(t, engine.Converged, rep.Outcome)
	require.Equal(t, []float64{math.Inf(1), 0, 1, 2}, rep.Values)
	require.Greater(t, rep.Rounds, 0)
}
