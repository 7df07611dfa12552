// Package engine executes vertex programs over a partitioned graph in
// bulk-synchronous rounds. A plan splits the vertex set across host and
// device compute contexts; each round every partition computes over its
// vertices concurrently, then a barrier folds activity counters and exchanges
// staged mail. State written in a round is visible to other vertices only
// from the next round on.
//
// Runs are deterministic: the same graph, plan and parameters produce
// bit-identical results regardless of scheduling, because mail merging is
// commutative and delivery folds sources in a fixed order.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tandemgraph/tandem/device"
	"github.com/tandemgraph/tandem/graph"
	"github.com/tandemgraph/tandem/utils"
)

// Run is one prepared execution of an algorithm over a partitioned graph.
// Build with NewRun, drive with Execute, read results with Gather.
type Run[S, M any] struct {
	g      *graph.Graph
	alg    Algorithm[S, M]
	plan   Plan
	lay    *Layout
	parts  []*Partition[S, M]
	devs   []*device.Device
	pool   *device.Pool
	grain  uint32
	budget int

	state    atomic.Int32
	terminal State
	rounds   int
	last     Signal
	watch    utils.Watch
}

// NewRun validates the plan, partitions the graph, leases device contexts and
// seeds initial mail. The graph must be non-empty. Devices acquired here are
// returned when Execute finishes.
func NewRun[S, M any](alg Algorithm[S, M], g *graph.Graph, plan Plan) (*Run[S, M], error) {
	if alg == nil {
		return nil, fmt.Errorf("%w: nil algorithm", ErrConfig)
	}
	if err := plan.Validate(g); err != nil {
		return nil, err
	}
	lay, err := BuildLayout(g, plan)
	if err != nil {
		return nil, err
	}

	r := &Run[S, M]{
		g:     g,
		alg:   alg,
		plan:  plan,
		lay:   lay,
		grain: plan.grain(),
		pool:  plan.pool(),
	}
	r.budget = resolveBudget(alg, g, plan)
	r.state.Store(int32(Init))

	if need, ok := any(alg).(AlgorithmNeedsInEdges); ok && need.NeedsInEdges() {
		g.InEdges()
	}

	r.devs, err = r.pool.Acquire(plan.deviceSlots())
	if err != nil {
		return nil, err
	}

	r.parts = make([]*Partition[S, M], len(lay.Parts))
	di := 0
	for i := range lay.Parts {
		var dev *device.Device
		if lay.Parts[i].Kind == DeviceContext {
			dev = r.devs[di]
			di++
		}
		r.parts[i] = newPartition(r, &lay.Parts[i], dev)
	}

	if init, ok := any(alg).(AlgorithmInitAllMail[S, M]); ok {
		for _, p := range r.parts {
			for local := uint32(0); local < p.Len(); local++ {
				p.mergeLocal(local, init.InitAllMail(g, p.Global(local)))
			}
		}
	}
	if init, ok := any(alg).(AlgorithmInitMail[S, M]); ok {
		var seedErr error
		init.InitMail(func(dst uint32, mail M) {
			if err := r.InjectMail(dst, mail); err != nil && seedErr == nil {
				seedErr = err
			}
		})
		if seedErr != nil {
			r.pool.Release(r.devs)
			r.devs = nil
			return nil, seedErr
		}
	}
	return r, nil
}

// Execute runs rounds until the algorithm converges, the round budget runs
// out, the context is cancelled, or a round fails. It returns nil for the
// first two outcomes. Cancellation is honored at round boundaries only, so
// state is never torn mid-round; staged mail from the last completed round is
// discarded, not delivered.
func (r *Run[S, M]) Execute(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(Init), int32(Running)) {
		return fmt.Errorf("%w: run already executed (state %s)", ErrConfig, r.State())
	}
	defer r.teardown()
	r.watch.Start()

	rc := &Round{}
	for {
		if err := ctx.Err(); err != nil {
			return r.fail(err)
		}
		if err := r.dispatch(rc); err != nil {
			return r.fail(err)
		}
		if err := ctx.Err(); err != nil {
			for _, p := range r.parts {
				p.discard()
			}
			return r.fail(err)
		}

		var sig Signal
		for _, p := range r.parts {
			ps, err := p.fold()
			if err != nil {
				return r.fail(err)
			}
			sig.fold(ps)
		}
		flush(r.parts)
		r.rounds++
		r.last = sig
		if log.Trace().Enabled() {
			log.Trace().Msg("round " + utils.V(rc.Number) + ": sent " + utils.V(sig.Sent) +
				" active " + utils.V(sig.Active) + " delta " + utils.F("%.3g", sig.Delta) +
				" at " + utils.V(r.watch.Elapsed().Milliseconds()) + "ms")
		}

		halt := false
		if hook, ok := any(r.alg).(AlgorithmOnRoundEnd[S, M]); ok {
			var err error
			halt, err = hook.OnRoundEnd(rc, r)
			if err != nil {
				return r.fail(err)
			}
		}
		if halt || r.alg.Converged(rc, sig) {
			return r.finish(Converged)
		}
		if r.rounds >= r.budget {
			return r.finish(MaxRounds)
		}
		rc.Prev = sig
		rc.Number++
	}
}

// dispatch runs one round of compute on every partition and waits for all of
// them. Host partitions get a goroutine each; device partitions are submitted
// to their leased context. When several partitions error in the same round the
// lowest partition id wins.
func (r *Run[S, M]) dispatch(rc *Round) error {
	errs := make([]error, len(r.parts))
	var futs []*device.Future
	var futIdx []int
	var wg sync.WaitGroup
	for i, p := range r.parts {
		if p.kind == HostContext {
			wg.Add(1)
			go func(i int, p *Partition[S, M]) {
				defer wg.Done()
				defer func() {
					if rec := recover(); rec != nil {
						errs[i] = fmt.Errorf("compute panicked: %v", rec)
					}
				}()
				errs[i] = r.alg.OnRound(rc, p)
			}(i, p)
		} else {
			part := p
			futs = append(futs, p.dev.Submit(func() error {
				return r.alg.OnRound(rc, part)
			}))
			futIdx = append(futIdx, i)
		}
	}
	wg.Wait()
	for fi, fut := range futs {
		errs[futIdx[fi]] = fut.Await()
	}
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("partition %d round %d: %w", i, rc.Number, err)
		}
	}
	return nil
}

func (r *Run[S, M]) fail(err error) error {
	r.terminal = Failed
	r.state.Store(int32(Failed))
	log.Error().Msg("run failed after " + utils.V(r.rounds) + " rounds: " + err.Error())
	return err
}

func (r *Run[S, M]) finish(outcome State) error {
	if hook, ok := any(r.alg).(AlgorithmOnFinish[S, M]); ok {
		if err := hook.OnFinish(r); err != nil {
			return r.fail(err)
		}
	}
	r.terminal = outcome
	r.state.Store(int32(outcome))
	log.Debug().Msg("run " + outcome.String() + " after " + utils.V(r.rounds) + " rounds in " +
		utils.V(r.watch.Elapsed().Milliseconds()) + "ms")
	return nil
}

// teardown returns leased devices and moves a finished run to Done.
func (r *Run[S, M]) teardown() {
	if r.devs != nil {
		r.pool.Release(r.devs)
		r.devs = nil
	}
	if State(r.state.Load()).Terminal() {
		r.state.Store(int32(Done))
	}
}

// Gather copies per-vertex state out in global vertex order.
func (r *Run[S, M]) Gather() []S {
	out := make([]S, r.g.VertexCount())
	for _, p := range r.parts {
		for local, global := range p.lay.Verts {
			out[global] = p.State[local]
		}
	}
	return out
}

// StateOf is a direct pointer to a vertex's state, addressed globally. For
// single-threaded use between rounds; global must be in range.
func (r *Run[S, M]) StateOf(global uint32) *S {
	p := r.parts[r.lay.Owner[global]]
	return &p.State[r.lay.Local[global]]
}

// InjectMail merges mail into a vertex's mailbox outside of compute: from
// InitMail seeding or a between-round hook. The vertex activates for the next
// round if the merge reports new information.
func (r *Run[S, M]) InjectMail(dst uint32, mail M) error {
	if dst >= r.g.VertexCount() {
		return fmt.Errorf("%w: mail for vertex %d, graph holds %d", ErrVertexRange, dst, r.g.VertexCount())
	}
	p := r.parts[r.lay.Owner[dst]]
	p.mergeLocal(r.lay.Local[dst], mail)
	return nil
}

// ClearMail empties every mailbox and deactivates every vertex. For hooks
// that restart propagation from fresh seeds.
func (r *Run[S, M]) ClearMail() {
	for _, p := range r.parts {
		p.resetMail()
	}
}

// State is the run's current lifecycle state.
func (r *Run[S, M]) State() State { return State(r.state.Load()) }

// Outcome is how the run ended, preserved after teardown moves State to Done.
func (r *Run[S, M]) Outcome() State { return r.terminal }

// Rounds is the number of completed rounds.
func (r *Run[S, M]) Rounds() int { return r.rounds }

// LastSignal is the signal folded from the most recent round.
func (r *Run[S, M]) LastSignal() Signal { return r.last }

// Graph is the graph the run executes over.
func (r *Run[S, M]) Graph() *graph.Graph { return r.g }

// Layout is the partitioning this run uses.
func (r *Run[S, M]) Layout() *Layout { return r.lay }

// Parts exposes the partitions, for between-round hooks and result readers.
func (r *Run[S, M]) Parts() []*Partition[S, M] { return r.parts }

// Budget is the resolved round budget.
func (r *Run[S, M]) Budget() int { return r.budget }

// Execute builds a run and drives it to completion in one call.
func Execute[S, M any](ctx context.Context, alg Algorithm[S, M], g *graph.Graph, plan Plan) (*Run[S, M], error) {
	r, err := NewRun(alg, g, plan)
	if err != nil {
		return nil, err
	}
	if err := r.Execute(ctx); err != nil {
		return r, err
	}
	return r, nil
}

func resolveBudget[S, M any](alg Algorithm[S, M], g *graph.Graph, plan Plan) int {
	if plan.RoundBudget > 0 {
		return plan.RoundBudget
	}
	if b, ok := any(alg).(AlgorithmRoundBudget); ok {
		if n := b.RoundBudget(g); n > 0 {
			return n
		}
	}
	return defaultBudget(g.VertexCount())
}

// defaultBudget bounds label propagation over any simple path plus slack.
func defaultBudget(n uint32) int {
	b := int(n) + 2
	if b < 32 {
		b = 32
	}
	return b
}
