// Package alg holds the built-in vertex programs that run on the engine and a
// name registry the driver selects them through. Each algorithm is usable two
// ways: a typed entry point (RunBFS, RunPageRank, ...) returning the live run,
// or the registry's uniform Run returning a flat Report.
package alg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Params carries the per-run knobs shared across algorithms. Unused fields
// are ignored by algorithms that do not need them.
type Params struct {
	Source  uint32  // bfs, sssp, maxflow, stcon
	Sink    uint32  // maxflow, stcon
	Epsilon float64 // pagerank tolerance, betweenness sampling fraction
	Damping float64 // pagerank, 0 means 0.85
	PStart  float64 // pcore first threshold, 0 means 1
	PStep   float64 // pcore threshold step, 0 means 1
}

// Report is the uniform result shape the registry entry points hand back.
type Report struct {
	Algorithm string
	Values    []float64 // per-vertex result in global vertex order
	Flow      float64   // maxflow: total flow shipped source to sink
	Reached   bool      // stcon: sink reachable from source
	Rounds    int
	Outcome   engine.State
}

// Spec describes one registered algorithm.
type Spec struct {
	Name        string
	Describe    string
	NeedsSource bool
	NeedsSink   bool
	Run         func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error)
}

var registry = map[string]Spec{}

func register(s Spec) { registry[s.Name] = s }

// Lookup finds a registered algorithm by name.
func Lookup(name string) (Spec, error) {
	s, ok := registry[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q (have: %s)", ErrUnknownAlgorithm, name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names lists the registered algorithms, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkVertex(g *graph.Graph, role string, v uint32) error {
	if v >= g.VertexCount() {
		return fmt.Errorf("%w: %s vertex %d, graph holds %d", engine.ErrVertexRange, role, v, g.VertexCount())
	}
	return nil
}

func report(name string, rounds int, outcome engine.State) *Report {
	return &Report{Algorithm: name, Rounds: rounds, Outcome: outcome}
}
