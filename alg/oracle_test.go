package alg

import (
	gograph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/tandemgraph/tandem/graph"
)

// gonumMirror is the mutable surface shared by gonum's simple weighted
// graphs, directed and undirected.
type gonumMirror interface {
	gograph.Graph
	AddNode(gograph.Node)
	NodeWithID(int64) (gograph.Node, bool)
	NewWeightedEdge(gograph.Node, gograph.Node, float64) gograph.WeightedEdge
	SetWeightedEdge(gograph.WeightedEdge)
}

// mirror rebuilds g as a gonum simple graph for oracle runs. Parallel edges
// collapse to their minimum weight, matching min-distance semantics over a
// multigraph; unweighted graphs mirror with unit weights.
func mirror(g *graph.Graph) gonumMirror {
	var m gonumMirror
	if g.Directed() {
		m = simple.NewWeightedDirectedGraph(0, 0)
	} else {
		m = simple.NewWeightedUndirectedGraph(0, 0)
	}
	for v := uint32(0); v < g.VertexCount(); v++ {
		node, _ := m.NodeWithID(int64(v))
		m.AddNode(node)
	}

	type arc struct{ u, v uint32 }
	least := map[arc]float64{}
	for u := uint32(0); u < g.VertexCount(); u++ {
		base := g.EdgeBase(u)
		for i, v := range g.Neighbors(u) {
			w := 1.0
			if g.Weighted() {
				w = g.Weight(base + uint64(i))
			}
			key := arc{u, v}
			if !g.Directed() && v < u {
				key = arc{v, u}
			}
			if old, ok := least[key]; !ok || w < old {
				least[key] = w
			}
		}
	}
	for key, w := range least {
		m.SetWeightedEdge(m.NewWeightedEdge(m.Node(int64(key.u)), m.Node(int64(key.v)), w))
	}
	return m
}

// oracleDistances is gonum's shortest-path answer row for src, +Inf where
// src cannot reach.
func oracleDistances(g *graph.Graph, src uint32) []float64 {
	m := mirror(g)
	short := path.DijkstraFrom(m.Node(int64(src)), m)
	out := make([]float64, g.VertexCount())
	for v := range out {
		out[v] = short.WeightTo(int64(v))
	}
	return out
}
