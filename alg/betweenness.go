package alg

import (
	"context"
	"fmt"
	"math"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// bcState carries one vertex through both phases of a single-source
// dependency computation: breadth-first depth and path count forward, then
// accumulated dependency backward.
type bcState struct {
	Depth uint32
	Sigma float64
	Delta float64
}

// bcMail serves both phases. Forward it is (depth, path-count contribution),
// merged by minimum depth with equal-depth contributions summed. Backward
// every message carries depth zero, so the same merge degenerates to a sum.
type bcMail struct {
	Depth uint32
	Val   float64
}

// betweennessAlg runs Brandes' two phases for one source. The forward flood
// settles depths and path counts; the backward sweep walks the layers deepest
// first, one layer per round, so a vertex reads exactly its shortest-path
// successors' contributions: mail from any other layer arrives in a round the
// reader's depth gate rejects, and is cleared at the next boundary.
type betweennessAlg struct {
	source   uint32
	directed bool

	// Phase bookkeeping, touched only by the between-round hook.
	phase     int
	maxDepth  uint32
	backStart int
}

func (*betweennessAlg) NewState(g *graph.Graph, v uint32) bcState {
	return bcState{Depth: notReached}
}

func (*betweennessAlg) NewMail() bcMail { return bcMail{Depth: notReached} }

func (*betweennessAlg) MergeMail(in bcMail, ex *bcMail) bool {
	if in.Depth < ex.Depth {
		*ex = in
		return true
	}
	if in.Depth == ex.Depth && in.Depth != notReached {
		ex.Val += in.Val
		return true
	}
	return false
}

func (a *betweennessAlg) InitMail(seed func(dst uint32, mail bcMail)) {
	seed(a.source, bcMail{Depth: 0, Val: 1})
}

func (a *betweennessAlg) NeedsInEdges() bool { return a.directed }

func (a *betweennessAlg) OnRound(rc *engine.Round, p *engine.Partition[bcState, bcMail]) error {
	if a.phase == 0 {
		return a.forward(p)
	}
	return a.backward(rc, p)
}

func (a *betweennessAlg) forward(p *engine.Partition[bcState, bcMail]) error {
	return p.ForActive(func(l *engine.Lane[bcMail], local uint32, m bcMail) {
		st := &p.State[local]
		if m.Depth >= st.Depth {
			return
		}
		st.Depth = m.Depth
		st.Sigma = m.Val
		l.Active++
		for _, nbr := range p.Graph().Neighbors(p.Global(local)) {
			l.Send(nbr, bcMail{Depth: m.Depth + 1, Val: m.Val})
		}
	})
}

func (a *betweennessAlg) backward(rc *engine.Round, p *engine.Partition[bcState, bcMail]) error {
	target := a.maxDepth - uint32(rc.Number-a.backStart)
	g := p.Graph()
	return p.ForAll(func(l *engine.Lane[bcMail], local uint32) {
		st := &p.State[local]
		if st.Depth != target {
			return
		}
		st.Delta = st.Sigma * p.Mail(local).Val
		if target == 0 {
			return // the source accumulates nothing further
		}
		contrib := (1 + st.Delta) / st.Sigma
		gl := p.Global(local)
		if a.directed {
			for _, u := range g.InEdges().Sources(gl) {
				l.Send(u, bcMail{Depth: 0, Val: contrib})
			}
		} else {
			for _, u := range g.Neighbors(gl) {
				l.Send(u, bcMail{Depth: 0, Val: contrib})
			}
		}
	})
}

func (a *betweennessAlg) OnRoundEnd(rc *engine.Round, r *engine.Run[bcState, bcMail]) (bool, error) {
	if a.phase == 1 {
		return rc.Number-a.backStart >= int(a.maxDepth), nil
	}
	if r.LastSignal().Sent != 0 {
		return false, nil
	}
	// Forward flood settled; find the deepest reached layer.
	maxD := uint32(0)
	for _, p := range r.Parts() {
		for i := range p.State {
			if d := p.State[i].Depth; d != notReached && d > maxD {
				maxD = d
			}
		}
	}
	if maxD == 0 {
		return true, nil // nothing beyond the source
	}
	a.maxDepth = maxD
	a.backStart = rc.Number + 1
	a.phase = 1
	return false, nil
}

func (*betweennessAlg) Converged(rc *engine.Round, sig engine.Signal) bool { return false }

func (*betweennessAlg) RoundBudget(g *graph.Graph) int {
	// Forward and backward each take at most one round per layer.
	return 2*int(g.VertexCount()) + 8
}

// RunBetweenness computes betweenness centrality, running the engine once per
// source and accumulating dependencies. eps zero is exact (every vertex a
// source); 0 < eps <= 1 samples ceil(eps*V) sources spread evenly over the id
// range and scales the estimate. Undirected scores are halved, counting each
// path once. The int is the total rounds across all source runs. A plan round
// budget too small for any single flood is a config error.
func RunBetweenness(ctx context.Context, g *graph.Graph, eps float64, plan engine.Plan) ([]float64, int, error) {
	if eps < 0 || eps > 1 || math.IsNaN(eps) {
		return nil, 0, fmt.Errorf("%w: betweenness sampling fraction %v outside [0, 1]", engine.ErrConfig, eps)
	}
	if err := plan.Validate(g); err != nil {
		return nil, 0, err
	}
	n := g.VertexCount()

	sources := uint64(n)
	if eps > 0 {
		sources = uint64(math.Ceil(eps * float64(n)))
		if sources < 1 {
			sources = 1
		}
	}
	scale := float64(n) / float64(sources)

	totals := make([]float64, n)
	rounds := 0
	for i := uint64(0); i < sources; i++ {
		src := uint32(i * uint64(n) / sources)
		a := &betweennessAlg{source: src, directed: g.Directed()}
		r, err := engine.Execute[bcState, bcMail](ctx, a, g, plan)
		if err != nil {
			return nil, rounds, err
		}
		rounds += r.Rounds()
		if r.Outcome() != engine.Converged {
			return nil, rounds, fmt.Errorf("%w: round budget %d cut the source %d flood short",
				engine.ErrConfig, plan.RoundBudget, src)
		}
		for v, st := range r.Gather() {
			if uint32(v) != src {
				totals[v] += st.Delta * scale
			}
		}
	}
	if !g.Directed() {
		for v := range totals {
			totals[v] /= 2
		}
	}
	return totals, rounds, nil
}

func init() {
	register(Spec{
		Name:     "betweenness",
		Describe: "shortest-path betweenness centrality per vertex",
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			totals, rounds, err := RunBetweenness(ctx, g, p.Epsilon, plan)
			if err != nil {
				return nil, err
			}
			rep := report("betweenness", rounds, engine.Converged)
			rep.Values = totals
			return rep, nil
		},
	})
}
