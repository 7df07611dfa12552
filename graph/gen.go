package graph

import (
	"math/rand"

	"github.com/rs/zerolog/log"
)

// Deterministic graph shapes for tests and synthetic benchmarks.

func mustBuild(b *Builder) *Graph {
	g, err := b.Build()
	if err != nil {
		log.Panic().Err(err).Msg("generator produced an invalid graph")
	}
	return g
}

// Chain builds the path 0 -> 1 -> ... -> n-1.
func Chain(n uint32, directed bool) *Graph {
	b := NewBuilder(directed).Grow(n)
	for v := uint32(1); v < n; v++ {
		b.AddEdge(v-1, v)
	}
	return mustBuild(b)
}

// Cycle builds the chain plus the closing edge n-1 -> 0.
func Cycle(n uint32, directed bool) *Graph {
	b := NewBuilder(directed).Grow(n)
	for v := uint32(1); v < n; v++ {
		b.AddEdge(v-1, v)
	}
	if n > 1 {
		b.AddEdge(n-1, 0)
	}
	return mustBuild(b)
}

// Star builds edges 0 -> v for all other v.
func Star(n uint32, directed bool) *Graph {
	b := NewBuilder(directed).Grow(n)
	for v := uint32(1); v < n; v++ {
		b.AddEdge(0, v)
	}
	return mustBuild(b)
}

// Complete builds all ordered pairs (directed) or all unordered pairs.
func Complete(n uint32, directed bool) *Graph {
	b := NewBuilder(directed).Grow(n)
	for u := uint32(0); u < n; u++ {
		start := uint32(0)
		if !directed {
			start = u + 1
		}
		for v := start; v < n; v++ {
			if u != v {
				b.AddEdge(u, v)
			}
		}
	}
	return mustBuild(b)
}

// RandomUniform builds m edges with endpoints drawn uniformly from a seeded
// source. Self loops are re-drawn; duplicate edges may occur.
func RandomUniform(n uint32, m uint64, seed int64, directed bool) *Graph {
	return randomGraph(n, m, seed, directed, nil)
}

// RandomWeighted is RandomUniform with weights drawn uniformly from [1, maxW).
func RandomWeighted(n uint32, m uint64, maxW float64, seed int64, directed bool) *Graph {
	return randomGraph(n, m, seed, directed, func(rng *rand.Rand) float64 {
		return 1.0 + rng.Float64()*(maxW-1.0)
	})
}

func randomGraph(n uint32, m uint64, seed int64, directed bool, weigh func(*rand.Rand) float64) *Graph {
	rng := rand.New(rand.NewSource(seed))
	b := NewBuilder(directed).Grow(n)
	if weigh != nil {
		b.SetWeighted()
	}
	if n < 2 {
		m = 0
	}
	for i := uint64(0); i < m; i++ {
		src := uint32(rng.Intn(int(n)))
		dst := uint32(rng.Intn(int(n)))
		for dst == src {
			dst = uint32(rng.Intn(int(n)))
		}
		w := 1.0
		if weigh != nil {
			w = weigh(rng)
		}
		b.AddWeightedEdge(src, dst, w)
	}
	return mustBuild(b)
}
