package alg

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// corenessOracle peels greedily under rising integer thresholds, the direct
// restatement of coreness for unit weights. Parallel edges count per slot.
func corenessOracle(g *graph.Graph) []float64 {
	n := g.VertexCount()
	deg := make([]int, n)
	for v := uint32(0); v < n; v++ {
		deg[v] = len(g.Neighbors(v))
	}
	removed := make([]bool, n)
	core := make([]float64, n)
	for k := 1; ; k++ {
		for {
			changed := false
			for v := uint32(0); v < n; v++ {
				if !removed[v] && deg[v] < k {
					removed[v] = true
					changed = true
					for _, u := range g.Neighbors(v) {
						deg[u]--
					}
				}
			}
			if !changed {
				break
			}
		}
		alive := false
		for v := uint32(0); v < n; v++ {
			if !removed[v] {
				core[v] = float64(k)
				alive = true
			}
		}
		if !alive {
			return core
		}
	}
}

func levels(states []PCoreState) []float64 {
	out := make([]float64, len(states))
	for v, st := range states {
		out[v] = st.Level
	}
	return out
}

func TestPCoreCliqueWithTail(t *testing.T) {
	// A 4-clique keeps coreness 3, the tail vertex 1, the isolated one 0.
	g, err := graph.NewBuilder(false).Grow(6).
		AddEdge(0, 1).AddEdge(0, 2).AddEdge(0, 3).
		AddEdge(1, 2).AddEdge(1, 3).AddEdge(2, 3).
		AddEdge(3, 4).
		Build()
	require.NoError(t, err)

	r, err := RunPCore(context.Background(), g, 0, 0, engine.HostPlan(2))
	require.NoError(t, err)
	require.Equal(t, engine.Converged, r.Outcome())
	require.Equal(t, []float64{3, 3, 3, 3, 1, 0}, levels(r.Gather()))
}

func TestPCoreMatchesPeelingOracle(t *testing.T) {
	for seed := int64(1); seed <= 4; seed++ {
		g := graph.RandomUniform(40, 100, seed, false)
		r, err := RunPCore(context.Background(), g, 1, 1, engine.HostPlan(3))
		require.NoError(t, err)
		require.Equal(t, corenessOracle(g), levels(r.Gather()))
	}
}

func TestPCoreFractionalThresholds(t *testing.T) {
	// Weighted path 2.5 - 5 - 2.5: the whole path survives p = 2.5, then
	// collapses together once the endpoints go.
	g, err := graph.NewBuilder(false).Grow(3).SetWeighted().
		AddWeightedEdge(0, 1, 2.5).AddWeightedEdge(1, 2, 2.5).
		Build()
	require.NoError(t, err)

	r, err := RunPCore(context.Background(), g, 1, 0.5, engine.HostPlan(2))
	require.NoError(t, err)
	require.Equal(t, []float64{2.5, 2.5, 2.5}, levels(r.Gather()))
}

func TestPCoreDirectedCountsBothSides(t *testing.T) {
	// Total weighted degree on 0 -> 1 -> 2 is 1, 2, 1; the 2-core is empty.
	g := graph.Chain(3, true)
	r, err := RunPCore(context.Background(), g, 0, 0, engine.HostPlan(2))
	require.NoError(t, err)
	require.Equal(t, []float64{1, 1, 1}, levels(r.Gather()))
}

func TestPCoreRejectsBadThresholds(t *testing.T) {
	g := graph.Chain(3, false)
	_, err := RunPCore(context.Background(), g, 1, -0.5, engine.HostPlan(1))
	require.ErrorIs(t, err, engine.ErrConfig)

	_, err = RunPCore(context.Background(), g, 1, math.NaN(), engine.HostPlan(1))
	require.ErrorIs(t, err, engine.ErrConfig)
}

func TestPCoreRejectsNegativeWeights(t *testing.T) {
	g, err := graph.NewBuilder(false).Grow(2).SetWeighted().AddWeightedEdge(0, 1, -1).Build()
	require.NoError(t, err)

	_, err = RunPCore(context.Background(), g, 1, 1, engine.HostPlan(1))
	require.ErrorIs(t, err, graph.ErrFormat)
}
