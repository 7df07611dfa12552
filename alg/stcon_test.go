package alg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

func TestSTCONFindsTheSink(t *testing.T) {
	g := graph.Chain(6, true)
	reached, r, err := RunSTCON(context.Background(), g, 0, 5, engine.HostPlan(2))
	require.NoError(t, err)
	require.True(t, reached)
	require.NotNil(t, r)
}

func TestSTCONRespectsDirection(t *testing.T) {
	g := graph.Chain(6, true)
	reached, _, err := RunSTCON(context.Background(), g, 5, 0, engine.HostPlan(2))
	require.NoError(t, err)
	require.False(t, reached)
}

func TestSTCONSameVertexIsTrivial(t *testing.T) {
	g := graph.Chain(3, true)
	reached, r, err := RunSTCON(context.Background(), g, 2, 2, engine.HostPlan(1))
	require.NoError(t, err)
	require.True(t, reached)
	require.Nil(t, r)
}

func TestSTCONAcrossComponents(t *testing.T) {
	g, err := graph.NewBuilder(true).Grow(4).AddEdge(0, 1).AddEdge(2, 3).Build()
	require.NoError(t, err)

	reached, _, err := RunSTCON(context.Background(), g, 0, 3, engine.HostPlan(2))
	require.NoError(t, err)
	require.False(t, reached)
}

func TestSTCONStopsBeforeTheFloodEnds(t *testing.T) {
	// The sink sits four hops in; the remaining 95 chain links never matter.
	g := graph.Chain(100, true)
	reached, r, err := RunSTCON(context.Background(), g, 0, 4, engine.HostPlan(3))
	require.NoError(t, err)
	require.True(t, reached)
	require.LessOrEqual(t, r.Rounds(), 7)
}

func TestSTCONVertexRange(t *testing.T) {
	g := graph.Chain(3, true)
	_, _, err := RunSTCON(context.Background(), g, 0, 3, engine.HostPlan(1))
	require.ErrorIs(t, err, engine.ErrVertexRange)
}

func TestSTCONRegistryReport(t *testing.T) {
	spec, err := Lookup("stcon")
	require.NoError(t, err)
	require.True(t, spec.NeedsSource)
	require.True(t, spec.NeedsSink)

	g := graph.Chain(4, true)
	rep, err := spec.Run(context.Background(), g, Params{Source: 0, Sink: 3}, engine.HostPlan(2))
	require.NoError(t, err)
	require.True(t, rep.Reached)
	require.Equal(t, engine.Converged, rep.Outcome)

	rep, err = spec.Run(context.Background(), g, Params{Source: 1, Sink: 1}, engine.HostPlan(2))
	require.NoError(t, err)
	require.True(t, rep.Reached)
	require.Equal(t, engine.Converged, rep.Outcome)
}
