package graph

import (
	"fmt"
	"math"
)

// Builder accumulates an edge list and emits a validated CSR graph. Vertex ids
// are dense; the vertex count is max seen id + 1, or the Grow target if larger
// (isolated tail vertices are legal). Undirected builders mirror every edge at
// Build time. Builders are single-use.
type Builder struct {
	directed bool
	weighted bool
	srcs     []uint32
	dsts     []uint32
	ws       []float64
	minCount uint32
	built    bool
}

func NewBuilder(directed bool) *Builder {
	return &Builder{directed: directed}
}

// Grow declares that the graph holds at least n vertices.
func (b *Builder) Grow(n uint32) *Builder {
	if n > b.minCount {
		b.minCount = n
	}
	return b
}

// SetWeighted forces a weight array even if every recorded weight is 1, for
// inputs that carry an explicit weight column.
func (b *Builder) SetWeighted() *Builder {
	b.weighted = true
	return b
}

// AddEdge records src -> dst with weight 1.
func (b *Builder) AddEdge(src, dst uint32) *Builder {
	return b.AddWeightedEdge(src, dst, 1.0)
}

// AddWeightedEdge records src -> dst with the given weight. The build becomes
// weighted once any weight other than 1 is recorded.
func (b *Builder) AddWeightedEdge(src, dst uint32, w float64) *Builder {
	b.srcs = append(b.srcs, src)
	b.dsts = append(b.dsts, dst)
	b.ws = append(b.ws, w)
	if w != 1.0 {
		b.weighted = true
	}
	return b
}

// Build assembles the CSR arrays. Per-vertex edge order follows insertion
// order (mirrored edges of an undirected build directly after their original).
func (b *Builder) Build() (*Graph, error) {
	if b.built {
		return nil, fmt.Errorf("graph: builder reused after Build: %w", ErrFormat)
	}
	b.built = true

	n := b.minCount
	for i := range b.srcs {
		if b.srcs[i] == math.MaxUint32 || b.dsts[i] == math.MaxUint32 {
			return nil, fmt.Errorf("graph: vertex id %d reserved (edge %d): %w", uint32(math.MaxUint32), i, ErrFormat)
		}
		if b.srcs[i] >= n {
			n = b.srcs[i] + 1
		}
		if b.dsts[i] >= n {
			n = b.dsts[i] + 1
		}
	}

	m := uint64(len(b.srcs))
	if !b.directed {
		m *= 2
	}
	offsets := make([]uint64, n+1)
	for i := range b.srcs {
		offsets[b.srcs[i]+1]++
		if !b.directed {
			offsets[b.dsts[i]+1]++
		}
	}
	for v := uint32(0); v < n; v++ {
		offsets[v+1] += offsets[v]
	}

	nbrs := make([]uint32, m)
	var weights []float64
	if b.weighted {
		weights = make([]float64, m)
	}
	cursor := make([]uint64, n)
	place := func(src, dst uint32, w float64) {
		at := offsets[src] + cursor[src]
		nbrs[at] = dst
		if weights != nil {
			weights[at] = w
		}
		cursor[src]++
	}
	for i := range b.srcs {
		place(b.srcs[i], b.dsts[i], b.ws[i])
		if !b.directed {
			place(b.dsts[i], b.srcs[i], b.ws[i])
		}
	}

	return New(b.directed, offsets, nbrs, weights)
}
