package alg

import (
	"context"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// STCON answers source-to-target reachability: a breadth-first flood that
// raises the aux signal the moment Target adopts a depth, so the run halts at
// that round boundary instead of exhausting the frontier.
type STCON struct {
	Source uint32
	Target uint32
}

func (STCON) NewState(g *graph.Graph, v uint32) uint32 { return notReached }

func (STCON) NewMail() uint32 { return notReached }

func (STCON) MergeMail(in uint32, ex *uint32) bool {
	if in < *ex {
		*ex = in
		return true
	}
	return false
}

func (a STCON) InitMail(seed func(dst uint32, mail uint32)) { seed(a.Source, 0) }

func (a STCON) OnRound(rc *engine.Round, p *engine.Partition[uint32, uint32]) error {
	return p.ForActive(func(l *engine.Lane[uint32], local uint32, depth uint32) {
		if depth >= p.State[local] {
			return
		}
		p.State[local] = depth
		gl := p.Global(local)
		if gl == a.Target {
			l.Aux = 1
			return
		}
		for _, nbr := range p.Graph().Neighbors(gl) {
			l.Send(nbr, depth+1)
		}
	})
}

func (STCON) Converged(rc *engine.Round, sig engine.Signal) bool {
	return sig.Aux > 0 || sig.Sent == 0
}

// RunSTCON reports whether target is reachable from source. The returned run
// holds the partial depth flood for inspection.
func RunSTCON(ctx context.Context, g *graph.Graph, source, target uint32, plan engine.Plan) (bool, *engine.Run[uint32, uint32], error) {
	if err := checkVertex(g, "source", source); err != nil {
		return false, nil, err
	}
	if err := checkVertex(g, "target", target); err != nil {
		return false, nil, err
	}
	if source == target {
		return true, nil, nil
	}
	r, err := engine.Execute[uint32, uint32](ctx, STCON{Source: source, Target: target}, g, plan)
	if err != nil {
		return false, r, err
	}
	return *r.StateOf(target) != notReached, r, nil
}

func init() {
	register(Spec{
		Name:        "stcon",
		Describe:    "is the sink reachable from the source",
		NeedsSource: true,
		NeedsSink:   true,
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			reached, r, err := RunSTCON(ctx, g, p.Source, p.Sink, plan)
			if err != nil {
				return nil, err
			}
			rep := &Report{Algorithm: "stcon", Reached: reached}
			if r != nil {
				rep.Rounds = r.Rounds()
				rep.Outcome = r.Outcome()
			} else {
				rep.Outcome = engine.Converged
			}
			return rep, nil
		},
	})
}
