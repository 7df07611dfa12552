package alg

import (
	"context"
	"fmt"

	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
)

// RunCloseness computes closeness centrality from hop distances, one
// breadth-first run per source. A vertex reaching r others over a depth sum d
// scores (r-1)/(V-1) * (r-1)/d, which discounts vertices that see only a
// small component; isolated vertices score zero. The int is the total rounds
// across all source runs. A plan round budget too small for any single flood
// is a config error.
func RunCloseness(ctx context.Context, g *graph.Graph, plan engine.Plan) ([]float64, int, error) {
	if err := plan.Validate(g); err != nil {
		return nil, 0, err
	}
	n := g.VertexCount()

	out := make([]float64, n)
	rounds := 0
	for s := uint32(0); s < n; s++ {
		r, err := RunBFS(ctx, g, s, plan)
		if err != nil {
			return nil, rounds, err
		}
		rounds += r.Rounds()
		if r.Outcome() != engine.Converged {
			return nil, rounds, fmt.Errorf("%w: round budget %d cut the source %d flood short",
				engine.ErrConfig, plan.RoundBudget, s)
		}
		reached := uint64(0)
		sum := uint64(0)
		for _, d := range r.Gather() {
			if d == notReached {
				continue
			}
			reached++
			sum += uint64(d)
		}
		if reached <= 1 {
			continue // sees nothing but itself
		}
		rm1 := float64(reached - 1)
		out[s] = rm1 / float64(n-1) * (rm1 / float64(sum))
	}
	return out, rounds, nil
}

func init() {
	register(Spec{
		Name:     "closeness",
		Describe: "hop-distance closeness centrality per vertex",
		Run: func(ctx context.Context, g *graph.Graph, p Params, plan engine.Plan) (*Report, error) {
			values, rounds, err := RunCloseness(ctx, g, plan)
			if err != nil {
				return nil, err
			}
			rep := report("closeness", rounds, engine.Converged)
			rep.Values = values
			return rep, nil
		},
	})
}
