package alg

import (
	"context"
	"fmt"
	"math"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// Parent pointers travel as packed mail: search depth in the high bits, then
// the residual arc (edge id shifted left once, low bit set for a reverse
// traversal). Depth-major minimum merging keeps the search breadth-first and
// the adopted parent chain strictly decreasing in depth, so walking it from
// the sink cannot cycle. The all-ones arc marks the search root.
const (
	mfArcBits = 40
	mfArcMask = (uint64(1) << mfArcBits) - 1
	mfRootArc = mfArcMask
	mfNone    = math.MaxUint64
)

func mfPack(depth, arc uint64) uint64 { return depth<<mfArcBits | arc }

// MaxFlow finds augmenting paths in rounds: a breadth-first flood from the
// source over arcs with remaining capacity (forward) or shipped flow to push
// back (reverse). When the sink is reached, the between-round hook walks the
// parent chain single-threaded, saturates the bottleneck, and restarts the
// flood over the updated residuals. No path left means the flow is maximum.
type MaxFlow struct {
	src  uint32
	sink uint32

	// Residual state indexed by global edge id. Read-only while a round is
	// in flight; mutated only by the between-round hook.
	res  []float64
	flow []float64

	total float64
	paths int
}

func (*MaxFlow) NewState(g *graph.Graph, v uint32) uint64 { return mfNone }

func (*MaxFlow) NewMail() uint64 { return mfNone }

func (*MaxFlow) MergeMail(in uint64, ex *uint64) bool {
	if in < *ex {
		*ex = in
		return true
	}
	return false
}

func (a *MaxFlow) InitMail(seed func(dst uint32, mail uint64)) { seed(a.src, mfRootArc) }

func (*MaxFlow) NeedsInEdges() bool { return true }

func (a *MaxFlow) OnRound(rc *engine.Round, p *engine.Partition[uint64, uint64]) error {
	g := p.Graph()
	return p.ForActive(func(l *engine.Lane[uint64], local uint32, m uint64) {
		if m >= p.State[local] {
			return
		}
		p.State[local] = m
		gl := p.Global(local)
		if gl == a.sink {
			l.Aux = 1
			return
		}
		depth := m >> mfArcBits
		base := g.EdgeBase(gl)
		for i, nbr := range g.Neighbors(gl) {
			e := base + uint64(i)
			if a.res[e] > 0 {
				l.Send(nbr, mfPack(depth+1, e<<1))
			}
		}
		in := g.InEdges()
		srcs := in.Sources(gl)
		eids := in.EdgeIDs(gl)
		for i, u := range srcs {
			e := eids[i]
			if a.flow[e] > 0 {
				l.Send(u, mfPack(depth+1, e<<1|1))
			}
		}
	})
}

func (a *MaxFlow) OnRoundEnd(rc *engine.Round, r *engine.Run[uint64, uint64]) (bool, error) {
	sig := r.LastSignal()
	if sig.Aux == 0 {
		// The flood either is still expanding or died out; dying out with the
		// sink unreached means no augmenting path remains.
		return sig.Sent == 0, nil
	}

	g := r.Graph()
	amount := math.Inf(1)
	for v := a.sink; v != a.src; {
		arc := *r.StateOf(v) & mfArcMask
		e := arc >> 1
		if arc&1 == 0 {
			amount = math.Min(amount, a.res[e])
			v = g.EdgeSrc(e)
		} else {
			amount = math.Min(amount, a.flow[e])
			v = g.EdgeDst(e)
		}
	}
	for v := a.sink; v != a.src; {
		arc := *r.StateOf(v) & mfArcMask
		e := arc >> 1
		if arc&1 == 0 {
			a.res[e] -= amount
			a.flow[e] += amount
			v = g.EdgeSrc(e)
		} else {
			a.flow[e] -= amount
			a.res[e] += amount
			v = g.EdgeDst(e)
		}
	}
	a.total += amount
	a.paths++

	// Fresh search over the updated residual graph.
	for _, p := range r.Parts() {
		st := p.State
		for i := range st {
			st[i] = mfNone
		}
	}
	r.ClearMail()
	return false, r.InjectMail(a.src, mfRootArc)
}

func (*MaxFlow) Converged(rc *engine.Round, sig engine.Signal) bool { return false }

func (*MaxFlow) RoundBudget(g *graph.Graph) int {
	v := uint64(g.VertexCount()) + 2
	e := g.EdgeCount() + 1
	if v > 1<<11 || e > 1<<11 {
		return 1 << 22
	}
	return int(v * e)
}

// FlowResult is the outcome of a max-flow run.
type FlowResult struct {
	Flow     float64
	Paths    int       // augmenting paths applied
	EdgeFlow []float64 // shipped flow per global edge id
	Rounds   int
	Outcome  engine.State
}

// RunMaxFlow executes augmenting-path max flow from source to sink over a
// directed graph. Edge weights are capacities and must be positive; an
// unweighted graph is unit-capacity.
func RunMaxFlow(ctx context.Context, g *graph.Graph, source, sink uint32, plan engine.Plan) (*FlowResult, error) {
	if err := checkVertex(g, "source", source); err != nil {
		return nil, err
	}
	if err := checkVertex(g, "sink", sink); err != nil {
		return nil, err
	}
	if source == sink {
		return nil, fmt.Errorf("%w: flow source and sink are both %d", engine.ErrConfig, source)
	}
	if !g.Directed() {
		return nil, fmt.Errorf("%w: flow needs a directed graph", engine.ErrConfig)
	}
	if g.VertexCount() >= 1<<24 || g.EdgeCount() >= 1<<38 {
		return nil, fmt.Errorf("%w: graph too large for flow arc encoding", engine.ErrConfig)
	}
	if g.Weighted() {
		for e := uint64(0); e < g.EdgeCount(); e++ {
			if w := g.Weight(e); w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: edge %d has capacity %v, flow needs positive finite capacities",
					graph.ErrFormat, e, w)
			}
		}
	}

	a := &MaxFlow{
		src:  source,
		sink: sink,
		res:  make([]float64, g.EdgeCount()),
		flow: make([]float64, g.EdgeCount()),
	}
	for e := uint64(0); e < g.EdgeCount(); e++ {
		a.res[e] = g.Weight(e)
	}

	r, err := engine.Execute[uint64, uint64](ctx, a, g, plan)
	if err != nil {
		return nil, err
	}
	return &FlowResult{
		Flow:     a.total,
		Paths:    a.paths,
		EdgeFlow: a.flow,
		Rounds:   r.Rounds(),
		Outcome:  r.Outcome(),
	}, nil
}

func init() {
	register(Spec{
		Name:        "maxflow",
		Describe:    "maximum flow shipped from source to sink",
		NeedsSource: true,
		NeedsSink:   true,
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			res, err := RunMaxFlow(ctx, g, p.Source, p.Sink, plan)
			if err != nil {
				return nil, err
			}
			rep := report("maxflow", res.Rounds, res.Outcome)
			rep.Flow = res.Flow
			return rep, nil
		},
	})
}
