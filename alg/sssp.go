package alg

import (
	"context"
	"fmt"
	"math"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// SSSP relaxes path distances from Source over weighted edges: mail is a
// candidate distance merged by minimum, and an improving vertex offers
// distance+weight along each out-edge. Unweighted graphs degrade to hop
// counts. Weights must be non-negative; there is no negative-cycle handling.
type SSSP struct {
	Source uint32
}

func (SSSP) NewState(g *graph.Graph, v uint32) float64 { return math.Inf(1) }

func (SSSP) NewMail() float64 { return math.Inf(1) }

func (SSSP) MergeMail(in float64, ex *float64) bool {
	if in < *ex {
		*ex = in
		return true
	}
	return false
}

func (a SSSP) InitMail(seed func(dst uint32, mail float64)) { seed(a.Source, 0) }

func (SSSP) OnRound(rc *engine.Round, p *engine.Partition[float64, float64]) error {
	return p.ForActive(func(l *engine.Lane[float64], local uint32, dist float64) {
		if dist >= p.State[local] {
			return
		}
		p.State[local] = dist
		l.Active++
		g := p.Graph()
		gl := p.Global(local)
		base := g.EdgeBase(gl)
		for i, nbr := range g.Neighbors(gl) {
			l.Send(nbr, dist+g.Weight(base+uint64(i)))
		}
	})
}

func (SSSP) Converged(rc *engine.Round, sig engine.Signal) bool { return sig.Sent == 0 }

// RunSSSP executes single-source shortest paths. Negative edge weights are
// rejected up front; distances come from Gather, +Inf where unreachable.
func RunSSSP(ctx context.Context, g *graph.Graph, source uint32, plan engine.Plan) (*engine.Run[float64, float64], error) {
	if err := checkVertex(g, "source", source); err != nil {
		return nil, err
	}
	if g.Weighted() {
		for e := uint64(0); e < g.EdgeCount(); e++ {
			if w := g.Weight(e); w < 0 || math.IsNaN(w) {
				return nil, fmt.Errorf("%w: edge %d has weight %v, shortest paths need non-negative weights",
					graph.ErrFormat, e, w)
			}
		}
	}
	return engine.Execute[float64, float64](ctx, SSSP{Source: source}, g, plan)
}

func init() {
	register(Spec{
		Name:        "sssp",
		Describe:    "shortest weighted distance from a source vertex",
		NeedsSource: true,
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			r, err := RunSSSP(ctx, g, p.Source, plan)
			if err != nil {
				return nil, err
			}
			rep := report("sssp", r.Rounds(), r.Outcome())
			rep.Values = r.Gather()
			return rep, nil
		},
	})
}
