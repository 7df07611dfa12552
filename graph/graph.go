package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrFormat is wrapped by all structural validation failures: bad offset
// arrays, neighbour ids out of range, weight length mismatches, and malformed
// input lines in the text loader.
var ErrFormat = errors.New("malformed graph")

// Graph is an immutable CSR adjacency structure. Offsets index the flat
// neighbour array per vertex; the optional weight array parallels it.
// Undirected graphs store each edge in both directions.
type Graph struct {
	directed bool
	offsets  []uint64  // len = VertexCount()+1
	nbrs     []uint32  // len = EdgeCount()
	weights  []float64 // nil when unweighted, else parallel to nbrs

	inOnce sync.Once
	in     *InEdges
}

// New validates the given CSR arrays and wraps them. The arrays are owned by
// the returned graph and must not be mutated after.
func New(directed bool, offsets []uint64, nbrs []uint32, weights []float64) (*Graph, error) {
	if len(offsets) < 1 {
		return nil, fmt.Errorf("graph: offset array must hold at least the terminator: %w", ErrFormat)
	}
	if offsets[0] != 0 {
		return nil, fmt.Errorf("graph: offset array must start at 0, got %d: %w", offsets[0], ErrFormat)
	}
	n := uint32(len(offsets) - 1)
	for v := uint32(0); v < n; v++ {
		if offsets[v+1] < offsets[v] {
			return nil, fmt.Errorf("graph: offsets not monotonic at vertex %d: %w", v, ErrFormat)
		}
	}
	if offsets[n] != uint64(len(nbrs)) {
		return nil, fmt.Errorf("graph: offset terminator %d != edge array length %d: %w", offsets[n], len(nbrs), ErrFormat)
	}
	for i := range nbrs {
		if nbrs[i] >= n {
			return nil, fmt.Errorf("graph: neighbour id %d >= vertex count %d (edge %d): %w", nbrs[i], n, i, ErrFormat)
		}
	}
	if weights != nil && len(weights) != len(nbrs) {
		return nil, fmt.Errorf("graph: weight array length %d != edge array length %d: %w", len(weights), len(nbrs), ErrFormat)
	}
	return &Graph{directed: directed, offsets: offsets, nbrs: nbrs, weights: weights}, nil
}

func (g *Graph) VertexCount() uint32 {
	return uint32(len(g.offsets) - 1)
}

func (g *Graph) EdgeCount() uint64 {
	return g.offsets[len(g.offsets)-1]
}

func (g *Graph) Directed() bool {
	return g.directed
}

func (g *Graph) Weighted() bool {
	return g.weights != nil
}

func (g *Graph) OutDegree(v uint32) uint32 {
	return uint32(g.offsets[v+1] - g.offsets[v])
}

// Neighbors gives the out-neighbour slice of v. A view, not a copy.
func (g *Graph) Neighbors(v uint32) []uint32 {
	return g.nbrs[g.offsets[v]:g.offsets[v+1]]
}

// OutWeights gives the weight slice parallel to Neighbors(v). Nil when the
// graph is unweighted.
func (g *Graph) OutWeights(v uint32) []float64 {
	if g.weights == nil {
		return nil
	}
	return g.weights[g.offsets[v]:g.offsets[v+1]]
}

// EdgeBase gives the global edge index of v's first out-edge, so that
// EdgeBase(v)+i identifies the edge to Neighbors(v)[i].
func (g *Graph) EdgeBase(v uint32) uint64 {
	return g.offsets[v]
}

// Weight of edge e; 1 for unweighted graphs.
func (g *Graph) Weight(e uint64) float64 {
	if g.weights == nil {
		return 1.0
	}
	return g.weights[e]
}

func (g *Graph) EdgeDst(e uint64) uint32 {
	return g.nbrs[e]
}

// EdgeSrc recovers the source vertex of edge e by offset search.
func (g *Graph) EdgeSrc(e uint64) uint32 {
	return uint32(sort.Search(int(g.VertexCount()), func(v int) bool {
		return g.offsets[v+1] > e
	}))
}

// InEdges is the reverse adjacency view: per vertex, the sources of its
// in-edges together with the forward edge index each came from. Per-vertex
// lists are ordered by (source, edge index).
type InEdges struct {
	offsets []uint64
	srcs    []uint32
	eids    []uint64
}

// InEdges builds the reverse view on first use and caches it.
func (g *Graph) InEdges() *InEdges {
	g.inOnce.Do(func() {
		n := g.VertexCount()
		offsets := make([]uint64, n+1)
		for i := range g.nbrs {
			offsets[g.nbrs[i]+1]++
		}
		for v := uint32(0); v < n; v++ {
			offsets[v+1] += offsets[v]
		}
		srcs := make([]uint32, len(g.nbrs))
		eids := make([]uint64, len(g.nbrs))
		cursor := make([]uint64, n)
		for u := uint32(0); u < n; u++ {
			base := g.offsets[u]
			for i, v := range g.Neighbors(u) {
				at := offsets[v] + cursor[v]
				srcs[at] = u
				eids[at] = base + uint64(i)
				cursor[v]++
			}
		}
		g.in = &InEdges{offsets: offsets, srcs: srcs, eids: eids}
	})
	return g.in
}

func (in *InEdges) Degree(v uint32) uint32 {
	return uint32(in.offsets[v+1] - in.offsets[v])
}

// Sources gives the in-neighbour slice of v. A view, not a copy.
func (in *InEdges) Sources(v uint32) []uint32 {
	return in.srcs[in.offsets[v]:in.offsets[v+1]]
}

// EdgeIDs gives the forward edge indexes parallel to Sources(v).
func (in *InEdges) EdgeIDs(v uint32) []uint64 {
	return in.eids[in.offsets[v]:in.offsets[v+1]]
}
