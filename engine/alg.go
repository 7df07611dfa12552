package engine

import (
	"github.com/tandemgraph/tandem/graph"
)

// Algorithm is the contract a vertex program implements to run on the engine.
// S is the per-vertex state type, M the mail type.
//
// A round presents each vertex with the merged mail addressed to it since the
// previous round; state written during a round becomes visible to readers only
// at the next round boundary. Mail merging must be commutative and
// associative, as arrival order within a round carries no meaning.
type Algorithm[S, M any] interface {
	// NewState produces the initial state for global vertex v.
	NewState(g *graph.Graph, v uint32) S

	// NewMail is the identity element a mailbox is reset to after it is read.
	NewMail() M

	// MergeMail folds incoming into an existing mailbox, reporting whether the
	// mailbox changed. A vertex is scheduled for the next round only if some
	// merge into its box reported a change.
	MergeMail(incoming M, existing *M) (newInfo bool)

	// OnRound runs one round of compute over the given partition. It is called
	// concurrently across partitions; it must touch only p and values reached
	// through p. Errors abort the run.
	OnRound(rc *Round, p *Partition[S, M]) error

	// Converged inspects the signal folded from the round that just finished
	// and reports whether the run is complete.
	Converged(rc *Round, sig Signal) bool
}

// AlgorithmInitMail seeds mail into chosen vertices before the first round.
// An out-of-range destination aborts run setup before any round executes.
type AlgorithmInitMail[S, M any] interface {
	InitMail(seed func(dst uint32, mail M))
}

// AlgorithmInitAllMail provides initial mail for every vertex, activating all
// of them for round zero.
type AlgorithmInitAllMail[S, M any] interface {
	InitAllMail(g *graph.Graph, v uint32) M
}

// AlgorithmOnRoundEnd runs between rounds, after mail exchange, with no
// partition compute in flight. It is the one place an algorithm may touch
// global state across partitions (via r) without races. Returning halt ends
// the run as converged.
type AlgorithmOnRoundEnd[S, M any] interface {
	OnRoundEnd(rc *Round, r *Run[S, M]) (halt bool, err error)
}

// AlgorithmOnFinish runs once after the final round, before results are
// gathered.
type AlgorithmOnFinish[S, M any] interface {
	OnFinish(r *Run[S, M]) error
}

// AlgorithmNeedsInEdges asks the engine to materialize the transpose index
// during setup, so g.InEdges() inside OnRound is a plain read.
type AlgorithmNeedsInEdges interface {
	NeedsInEdges() bool
}

// AlgorithmRoundBudget overrides the default round budget when the plan does
// not set one.
type AlgorithmRoundBudget interface {
	RoundBudget(g *graph.Graph) int
}

// Signal is the per-round activity summary, folded from every partition's
// lanes in partition order. Sent is counted by the engine as mail is staged;
// Active, Delta and Aux are the algorithm's channels, written through the
// lane during compute.
type Signal struct {
	Sent   uint64  // messages staged this round
	Active uint64  // algorithm-counted productive vertices
	Delta  float64 // algorithm-defined residual, summed across lanes
	Aux    float64 // algorithm-defined channel, summed across lanes
}

func (s *Signal) fold(o Signal) {
	s.Sent += o.Sent
	s.Active += o.Active
	s.Delta += o.Delta
	s.Aux += o.Aux
}

// Round is the per-round context handed to compute and hooks.
type Round struct {
	Number int    // zero-based round index
	Prev   Signal // signal folded from the previous round, zero for round 0
}
