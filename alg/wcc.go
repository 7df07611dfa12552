package alg

import (
	"context"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// WCC labels weakly connected components with the smallest vertex id they
// contain. Every vertex starts as its own candidate label and the minimum
// floods until quiescence. Direction is ignored: labels cross each edge both
// ways, using the transpose index on directed graphs.
type WCC struct{}

func (WCC) NewState(g *graph.Graph, v uint32) uint32 { return notReached }

func (WCC) NewMail() uint32 { return notReached }

func (WCC) MergeMail(in uint32, ex *uint32) bool {
	if in < *ex {
		*ex = in
		return true
	}
	return false
}

func (WCC) InitAllMail(g *graph.Graph, v uint32) uint32 { return v }

func (WCC) NeedsInEdges() bool { return true }

func (WCC) OnRound(rc *engine.Round, p *engine.Partition[uint32, uint32]) error {
	g := p.Graph()
	directed := g.Directed()
	return p.ForActive(func(l *engine.Lane[uint32], local uint32, label uint32) {
		if label >= p.State[local] {
			return
		}
		p.State[local] = label
		l.Active++
		gl := p.Global(local)
		for _, nbr := range g.Neighbors(gl) {
			l.Send(nbr, label)
		}
		if directed {
			// Undirected storage already mirrors each edge.
			for _, src := range g.InEdges().Sources(gl) {
				l.Send(src, label)
			}
		}
	})
}

func (WCC) Converged(rc *engine.Round, sig engine.Signal) bool { return sig.Sent == 0 }

// RunWCC executes weakly-connected-components labeling.
func RunWCC(ctx context.Context, g *graph.Graph, plan engine.Plan) (*engine.Run[uint32, uint32], error) {
	return engine.Execute[uint32, uint32](ctx, WCC{}, g, plan)
}

func init() {
	register(Spec{
		Name:     "wcc",
		Describe: "weakly connected component label per vertex",
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			r, err := RunWCC(ctx, g, plan)
			if err != nil {
				return nil, err
			}
			rep := report("wcc", r.Rounds(), r.Outcome())
			rep.Values = make([]float64, 0, g.VertexCount())
			for _, label := range r.Gather() {
				rep.Values = append(rep.Values, float64(label))
			}
			return rep, nil
		},
	})
}
