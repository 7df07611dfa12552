package graph

import (
	"github.com/rs/zerolog/log"

	"github.com/tandemgraph/tandem/utils"
)

type Stats struct {
	Vertices        uint32
	Edges           uint64
	Directed        bool
	Weighted        bool
	MaxOutDegree    uint32
	MedianOutDegree uint32
	Isolated        uint32 // vertices with neither out- nor in-edges
}

func (g *Graph) ComputeStats() Stats {
	s := Stats{
		Vertices: g.VertexCount(),
		Edges:    g.EdgeCount(),
		Directed: g.directed,
		Weighted: g.weights != nil,
	}
	if s.Vertices == 0 {
		return s
	}
	degrees := make([]uint32, s.Vertices)
	touched := make([]bool, s.Vertices)
	for v := uint32(0); v < s.Vertices; v++ {
		degrees[v] = g.OutDegree(v)
		if degrees[v] > 0 {
			touched[v] = true
		}
	}
	for i := range g.nbrs {
		touched[g.nbrs[i]] = true
	}
	for v := uint32(0); v < s.Vertices; v++ {
		if !touched[v] {
			s.Isolated++
		}
	}
	s.MaxOutDegree = utils.MaxSlice(degrees)
	s.MedianOutDegree = utils.Median(degrees)
	return s
}

func (s Stats) Log() {
	dir := "directed"
	if !s.Directed {
		dir = "undirected"
	}
	log.Info().Msg("Graph: |V| " + utils.V(s.Vertices) + " |E| " + utils.V(s.Edges) + " " + dir +
		" weighted " + utils.V(s.Weighted))
	log.Info().Msg("Degrees: max " + utils.V(s.MaxOutDegree) + " median " + utils.V(s.MedianOutDegree) +
		" isolated " + utils.V(s.Isolated))
}
