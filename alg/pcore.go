package alg

import (
	"context"
	"fmt"
	"math"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// PCoreState tracks one vertex through the peeling schedule.
type PCoreState struct {
	Deg     float64 // remaining weighted degree
	Level   float64 // last threshold survived at a stable round
	Removed bool
}

// PCore peels the graph by increasing weighted-degree thresholds. Within one
// threshold, every round removes the vertices whose remaining degree fell
// under it; removals mail the lost edge weight to the survivors at the other
// end. When a round removes nobody the threshold is stable: survivors record
// it as their level and the threshold steps up. The run converges when
// nothing survives. On directed graphs degree counts both directions, via
// the transpose index.
type PCore struct {
	Start float64
	Step  float64

	cur     float64 // advanced only between rounds
	needsIn bool
}

func (a *PCore) NewState(g *graph.Graph, v uint32) PCoreState {
	deg := 0.0
	base := g.EdgeBase(v)
	for i := range g.Neighbors(v) {
		deg += g.Weight(base + uint64(i))
	}
	if a.needsIn {
		in := g.InEdges()
		for _, e := range in.EdgeIDs(v) {
			deg += g.Weight(e)
		}
	}
	return PCoreState{Deg: deg}
}

func (*PCore) NewMail() float64 { return 0 }

func (*PCore) MergeMail(in float64, ex *float64) bool {
	*ex += in
	return true
}

func (a *PCore) NeedsInEdges() bool { return a.needsIn }

func (a *PCore) OnRound(rc *engine.Round, p *engine.Partition[PCoreState, float64]) error {
	g := p.Graph()
	return p.ForAll(func(l *engine.Lane[float64], local uint32) {
		st := &p.State[local]
		if st.Removed {
			return
		}
		st.Deg += p.Mail(local) // removals mail negative weight
		if st.Deg >= a.cur {
			l.Aux++ // survivor count
			return
		}
		st.Removed = true
		l.Active++
		gl := p.Global(local)
		base := g.EdgeBase(gl)
		for i, nbr := range g.Neighbors(gl) {
			l.Send(nbr, -g.Weight(base+uint64(i)))
		}
		if a.needsIn {
			in := g.InEdges()
			srcs := in.Sources(gl)
			eids := in.EdgeIDs(gl)
			for i, src := range srcs {
				l.Send(src, -g.Weight(eids[i]))
			}
		}
	})
}

func (a *PCore) OnRoundEnd(rc *engine.Round, r *engine.Run[PCoreState, float64]) (halt bool, err error) {
	sig := r.LastSignal()
	if sig.Active > 0 {
		return false, nil // peeling cascade still moving
	}
	if sig.Aux == 0 {
		return true, nil // nothing left standing
	}
	for _, p := range r.Parts() {
		for local := uint32(0); local < p.Len(); local++ {
			if !p.State[local].Removed {
				p.State[local].Level = a.cur
			}
		}
	}
	a.cur += a.Step
	return false, nil
}

func (*PCore) Converged(rc *engine.Round, sig engine.Signal) bool { return false }

func (a *PCore) RoundBudget(g *graph.Graph) int {
	// Every round either removes a vertex or advances the threshold; bound
	// thresholds by the largest degree over the step size.
	maxDeg := 0.0
	for v := uint32(0); v < g.VertexCount(); v++ {
		deg := 0.0
		base := g.EdgeBase(v)
		for i := range g.Neighbors(v) {
			deg += g.Weight(base + uint64(i))
		}
		if a.needsIn {
			for _, e := range g.InEdges().EdgeIDs(v) {
				deg += g.Weight(e)
			}
		}
		maxDeg = math.Max(maxDeg, deg)
	}
	steps := int(maxDeg/a.Step) + 2
	budget := int(g.VertexCount()+2) + steps
	if budget > 1<<20 {
		budget = 1 << 20
	}
	return budget
}

// RunPCore executes the p-core decomposition. start 0 means 1; step 0 means
// 1; step must be positive.
func RunPCore(ctx context.Context, g *graph.Graph, start, step float64, plan engine.Plan) (*engine.Run[PCoreState, float64], error) {
	if step == 0 {
		step = 1
	}
	if start == 0 {
		start = 1
	}
	if step < 0 || math.IsNaN(step) || math.IsNaN(start) {
		return nil, fmt.Errorf("%w: pcore threshold start %v step %v", engine.ErrConfig, start, step)
	}
	if g != nil && g.Weighted() {
		for e := uint64(0); e < g.EdgeCount(); e++ {
			if w := g.Weight(e); w < 0 || math.IsNaN(w) {
				return nil, fmt.Errorf("%w: edge %d has weight %v, core peeling needs non-negative weights",
					graph.ErrFormat, e, w)
			}
		}
	}
	a := &PCore{Start: start, Step: step, cur: start, needsIn: g != nil && g.Directed()}
	return engine.Execute[PCoreState, float64](ctx, a, g, plan)
}

func init() {
	register(Spec{
		Name:     "pcore",
		Describe: "weighted core level per vertex",
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			r, err := RunPCore(ctx, g, p.PStart, p.PStep, plan)
			if err != nil {
				return nil, err
			}
			rep := report("pcore", r.Rounds(), r.Outcome())
			rep.Values = make([]float64, 0, g.VertexCount())
			for _, st := range r.Gather() {
				rep.Values = append(rep.Values, st.Level)
			}
			return rep, nil
		},
	})
}
