package engine

import (
	"errors"
)

var (
	// ErrConfig is wrapped by execution-plan rejections: bad fractions, empty
	// slot lists, oversubscribed devices, malformed plan files, and runs over
	// an empty graph.
	ErrConfig = errors.New("invalid execution plan")

	// ErrRouting is wrapped when a staged message names a destination vertex
	// no partition owns. Messages are never silently dropped.
	ErrRouting = errors.New("message routed to unknown partition")

	// ErrVertexRange is wrapped when a vertex argument (source, sink, mail
	// seed) is outside the graph, detected before any partitioning work.
	ErrVertexRange = errors.New("vertex id out of range")
)

// State is the run lifecycle. A run moves Init -> Running -> one of the
// terminal outcomes -> Done once torn down.
type State int32

const (
	Init State = iota
	Running
	Converged
	MaxRounds
	Failed
	Done
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case Running:
		return "RUNNING"
	case Converged:
		return "CONVERGED"
	case MaxRounds:
		return "MAX_ROUNDS_REACHED"
	case Failed:
		return "FAILED"
	case Done:
		return "DONE"
	}
	return "UNKNOWN"
}

// Terminal reports whether s is a run outcome.
func (s State) Terminal() bool {
	return s == Converged || s == MaxRounds || s == Failed
}
