package alg

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// requireSameDistances compares distance rows elementwise, treating +Inf as
// its own value since InDelta cannot.
func requireSameDistances(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for v := range want {
		if math.IsInf(want[v], 1) {
			require.True(t, math.IsInf(got[v], 1), "vertex %d: want unreachable, got %v", v, got[v])
			continue
		}
		require.InDelta(t, want[v], got[v], 1e-9, "vertex %d", v)
	}
}

func TestSSSPMatchesDijkstra(t *testing.T) {
	for _, directed := range []bool{true, false} {
		for seed := int64(1); seed <= 4; seed++ {
			g := graph.RandomWeighted(50, 250, 10, seed, directed)
			r, err := RunSSSP(context.Background(), g, 0, engine.HostPlan(3))
			require.NoError(t, err)
			require.Equal(t, engine.Converged, r.Outcome())

			requireSameDistances(t, oracleDistances(g, 0), r.Gather())
		}
	}
}

func TestSSSPPrefersLightDetours(t *testing.T) {
	// Direct hop costs 10, the three-hop detour 3.
	g, err := graph.NewBuilder(true).Grow(4).SetWeighted().
		AddWeightedEdge(0, 3, 10).
		AddWeightedEdge(0, 1, 1).
		AddWeightedEdge(1, 2, 1).
		AddWeightedEdge(2, 3, 1).
		Build()
	require.NoError(t, err)

	r, err := RunSSSP(context.Background(), g, 0, engine.HostPlan(2))
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 2, 3}, r.Gather())
}

func TestSSSPRejectsBadWeights(t *testing.T) {
	neg, err := graph.NewBuilder(true).Grow(2).SetWeighted().AddWeightedEdge(0, 1, -2).Build()
	require.NoError(t, err)
	_, err = RunSSSP(context.Background(), neg, 0, engine.HostPlan(1))
	require.ErrorIs(t, err, graph.ErrFormat)

	nan, err := graph.NewBuilder(true).Grow(2).SetWeighted().AddWeightedEdge(0, 1, math.NaN()).Build()
	require.NoError(t, err)
	_, err = RunSSSP(context.Background(), nan, 0, engine.HostPlan(1))
	require.ErrorIs(t, err, graph.ErrFormat)
}

func TestSSSPUnweightedFallsBackToHops(t *testing.T) {
	g := graph.Chain(6, true)
	r, err := RunSSSP(context.Background(), g, 0, engine.HostPlan(2))
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 2, 3, 4, 5}, r.Gather())
}

func TestSSSPSourceOutOfRange(t *testing.T) {
	g := graph.Chain(3, true)
	_, err := RunSSSP(context.Background(), g, 99, engine.HostPlan(1))
	require.ErrorIs(t, err, engine.ErrVertexRange)
}
