package alg

import (
	"context"
	"math"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// notReached marks vertices a traversal never settled.
const notReached = math.MaxUint32

// BFS floods hop counts outward from Source. Mail is a candidate depth,
// merged by minimum; a vertex adopts the first (smallest) depth it sees and
// offers depth+1 to its out-neighbors. Quiescence means every reachable
// vertex holds its hop distance.
type BFS struct {
	Source uint32
}

func (BFS) NewState(g *graph.Graph, v uint32) uint32 { return notReached }

func (BFS) NewMail() uint32 { return notReached }

func (BFS) MergeMail(in uint32, ex *uint32) bool {
	if in < *ex {
		*ex = in
		return true
	}
	return false
}

func (b BFS) InitMail(seed func(dst uint32, mail uint32)) { seed(b.Source, 0) }

func (BFS) OnRound(rc *engine.Round, p *engine.Partition[uint32, uint32]) error {
	return p.ForActive(func(l *engine.Lane[uint32], local uint32, depth uint32) {
		if depth >= p.State[local] {
			return
		}
		p.State[local] = depth
		l.Active++
		for _, nbr := range p.Graph().Neighbors(p.Global(local)) {
			l.Send(nbr, depth+1)
		}
	})
}

func (BFS) Converged(rc *engine.Round, sig engine.Signal) bool { return sig.Sent == 0 }

// RunBFS executes a breadth-first search and returns the live run; per-vertex
// depths come from Gather, notReached where the source cannot see.
func RunBFS(ctx context.Context, g *graph.Graph, source uint32, plan engine.Plan) (*engine.Run[uint32, uint32], error) {
	if err := checkVertex(g, "source", source); err != nil {
		return nil, err
	}
	return engine.Execute[uint32, uint32](ctx, BFS{Source: source}, g, plan)
}

func init() {
	register(Spec{
		Name:        "bfs",
		Describe:    "hop distance from a source vertex",
		NeedsSource: true,
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			r, err := RunBFS(ctx, g, p.Source, plan)
			if err != nil {
				return nil, err
			}
			rep := report("bfs", r.Rounds(), r.Outcome())
			rep.Values = depthValues(r.Gather())
			return rep, nil
		},
	})
}

// depthValues widens hop counts to the report shape, +Inf for unreached.
func depthValues(depths []uint32) []float64 {
	out := make([]float64, len(depths))
	for v, d := range depths {
		if d == notReached {
			out[v] = math.Inf(1)
		} else {
			out[v] = float64(d)
		}
	}
	return out
}
