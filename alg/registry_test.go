package alg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

func TestNamesListsEveryAlgorithm(t *testing.T) {
	require.Equal(t, []string{
		"betweenness", "bfs", "closeness", "maxflow", "pagerank",
		"pcore", "sssp", "stcon", "wcc",
	}, Names())
}

func TestLookupUnknownSuggestsTheRoster(t *testing.T) {
	_, err := Lookup("labelprop")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
	require.Contains(t, err.Error(), "labelprop")
	require.Contains(t, err.Error(), "bfs")
	require.Contains(t, err.Error(), "pagerank")
}

func TestRegistryRunsEveryAlgorithm(t *testing.T) {
	// One weighted directed diamond satisfies every algorithm's input rules.
	g, err := graph.NewBuilder(true).Grow(4).SetWeighted().
		AddWeightedEdge(0, 1, 2).AddWeightedEdge(0, 2, 1).
		AddWeightedEdge(1, 3, 1).AddWeightedEdge(2, 3, 2).
		Build()
	require.NoError(t, err)

	for _, name := range Names() {
		spec, err := Lookup(name)
		require.NoError(t, err)

		rep, err := spec.Run(context.Background(), g, Params{Source: 0, Sink: 3}, engine.HostPlan(2))
		require.NoError(t, err, "algorithm %s", name)
		require.Equal(t, name, rep.Algorithm)
		require.True(t, rep.Outcome.Terminal(), "algorithm %s ended %s", name, rep.Outcome)
	}
}
