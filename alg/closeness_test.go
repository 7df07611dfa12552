package alg

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

func TestClosenessUndirectedPath(t *testing.T) {
	g := graph.Chain(4, false)
	got, rounds, err := RunCloseness(context.Background(), g, engine.HostPlan(2))
	require.NoError(t, err)
	require.Greater(t, rounds, 0)
	require.InDeltaSlice(t, []float64{0.5, 0.75, 0.75, 0.5}, got, 1e-12)
}

func TestClosenessDiscountsSmallComponents(t *testing.T) {
	// A linked pair beside an isolated vertex: the pair sees half the
	// graph, the loner scores zero.
	g, err := graph.NewBuilder(false).Grow(3).AddEdge(0, 1).Build()
	require.NoError(t, err)

	got, _, err := RunCloseness(context.Background(), g, engine.HostPlan(1))
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{0.5, 0.5, 0}, got, 1e-12)
}

func TestClosenessFollowsArrowDirections(t *testing.T) {
	g := graph.Chain(3, true)
	got, _, err := RunCloseness(context.Background(), g, engine.HostPlan(2))
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{2.0 / 3, 0.5, 0}, got, 1e-12)
}

func TestClosenessRejectsTinyRoundBudget(t *testing.T) {
	g := graph.Chain(6, false)
	plan := engine.HostPlan(1)
	plan.RoundBudget = 2
	_, _, err := RunCloseness(context.Background(), g, plan)
	require.ErrorIs(t, err, engine.ErrConfig)
}

func TestClosenessMatchesDistanceOracle(t *testing.T) {
	const n = 25
	for _, directed := range []bool{true, false} {
		for seed := int64(1); seed <= 3; seed++ {
			g := graph.RandomUniform(n, 60, seed, directed)
			got, _, err := RunCloseness(context.Background(), g, engine.HostPlan(3))
			require.NoError(t, err)

			for s := uint32(0); s < n; s++ {
				dist := oracleDistances(g, s)
				reached, sum := 0, 0.0
				for _, d := range dist {
					if !math.IsInf(d, 1) {
						reached++
						sum += d
					}
				}
				want := 0.0
				if reached > 1 {
					rm1 := float64(reached - 1)
					want = rm1 / float64(n-1) * (rm1 / sum)
				}
				require.InDelta(t, want, got[s], 1e-9, "source %d", s)
			}
		}
	}
}
