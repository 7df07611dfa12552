package alg

import (
	"context"
	"math"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

const (
	defaultDamping = 0.85
	// Update rounds in fixed-iteration mode, matching the usual benchmark
	// setting for rank stabilization to plotting precision.
	pageRankRounds = 30
)

// PageRank runs the push formulation: each round every vertex splits its rank
// over its out-edges, and next round recomputes rank from the damped sum of
// what arrived. Dangling vertices bank their rank in the lane's aux channel
// and the engine hands the folded total back the following round, spread over
// all vertices, so total rank stays exactly 1.
//
// With Eps zero the run is a fixed 30 update rounds; otherwise it stops once
// the summed absolute rank change of a round falls under Eps.
type PageRank struct {
	Damping float64
	Eps     float64
}

func (PageRank) NewState(g *graph.Graph, v uint32) float64 {
	return 1 / float64(g.VertexCount())
}

func (PageRank) NewMail() float64 { return 0 }

func (PageRank) MergeMail(in float64, ex *float64) bool {
	*ex += in
	return true
}

func (a PageRank) OnRound(rc *engine.Round, p *engine.Partition[float64, float64]) error {
	g := p.Graph()
	n := float64(g.VertexCount())
	return p.ForAll(func(l *engine.Lane[float64], local uint32) {
		rank := p.State[local]
		if rc.Number > 0 {
			rank = (1-a.Damping)/n + a.Damping*(p.Mail(local)+rc.Prev.Aux/n)
			l.Delta += math.Abs(rank - p.State[local])
			p.State[local] = rank
		}
		nbrs := g.Neighbors(p.Global(local))
		if len(nbrs) == 0 {
			l.Aux += rank
			return
		}
		share := rank / float64(len(nbrs))
		for _, nbr := range nbrs {
			l.Send(nbr, share)
		}
	})
}

func (a PageRank) Converged(rc *engine.Round, sig engine.Signal) bool {
	if rc.Number == 0 {
		return false
	}
	if a.Eps > 0 {
		return sig.Delta < a.Eps
	}
	return rc.Number >= pageRankRounds
}

func (a PageRank) RoundBudget(g *graph.Graph) int {
	if a.Eps > 0 {
		return 500
	}
	return pageRankRounds + 1
}

// OnFinish renormalizes so reported ranks sum to exactly 1 despite float
// rounding over many rounds.
func (PageRank) OnFinish(r *engine.Run[float64, float64]) error {
	total := 0.0
	for _, p := range r.Parts() {
		for local := uint32(0); local < p.Len(); local++ {
			total += p.State[local]
		}
	}
	if total == 0 {
		return nil
	}
	for _, p := range r.Parts() {
		for local := uint32(0); local < p.Len(); local++ {
			p.State[local] /= total
		}
	}
	return nil
}

// RunPageRank executes PageRank. damping 0 means 0.85; eps 0 means the fixed
// 30-round schedule.
func RunPageRank(ctx context.Context, g *graph.Graph, damping, eps float64, plan engine.Plan) (*engine.Run[float64, float64], error) {
	if damping == 0 {
		damping = defaultDamping
	}
	return engine.Execute[float64, float64](ctx, PageRank{Damping: damping, Eps: eps}, g, plan)
}

func init() {
	register(Spec{
		Name:     "pagerank",
		Describe: "stationary visit probability per vertex",
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			eps := p.Epsilon
			if eps == 0 {
				eps = plan.Epsilon
			}
			r, err := RunPageRank(ctx, g, p.Damping, eps, plan)
			if err != nil {
				return nil, err
			}
			rep := report("pagerank", r.Rounds(), r.Outcome())
			rep.Values = r.Gather()
			return rep, nil
		},
	})
}
