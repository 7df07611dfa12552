package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tandemgraph/tandem/graph"
	"github.com/tandemgraph/tandem/utils"
)

// RemoteEdge records one edge whose endpoint lives in another partition:
// enough to route mail without consulting the global graph.
type RemoteEdge struct {
	SrcLocal  uint32 // owning-partition local id of the source
	DstGlobal uint32 // global id of the far endpoint
	DstPart   int32  // slot that owns the far endpoint
}

// PartLayout is the static shape of one partition: which vertices it owns and
// how its edges leave it.
type PartLayout struct {
	ID        int
	Kind      ContextKind
	Verts     []uint32     // local -> global, ascending
	Remotes   []RemoteEdge // cross-partition out-edges, in local edge order
	OutCounts []uint64     // staged-mail capacity hint per destination slot
	OwnEdges  uint64       // out-edges whose source this partition owns
	CutEdges  uint64       // of those, edges leaving the partition
}

// Len is the partition's vertex count.
func (pl *PartLayout) Len() uint32 { return uint32(len(pl.Verts)) }

// Layout maps every global vertex to its partition and back. It is pure
// bookkeeping: the vertex data itself stays in the global graph and partitions
// view it through Verts.
type Layout struct {
	Owner    []int32  // global -> owning slot
	Local    []uint32 // global -> local id within the owner
	Parts    []PartLayout
	Strategy string
}

// BuildLayout runs the plan's strategy over the graph and assembles the
// per-partition layouts, remote-edge tables, and capacity hints.
func BuildLayout(g *graph.Graph, plan Plan) (*Layout, error) {
	strat := plan.strategy()
	owner, err := strat.Assign(g, plan.Slots)
	if err != nil {
		return nil, err
	}
	n := g.VertexCount()
	k := len(plan.Slots)
	if uint32(len(owner)) != n {
		return nil, fmt.Errorf("%w: strategy %s assigned %d of %d vertices", ErrConfig, strat.Name(), len(owner), n)
	}

	lay := &Layout{
		Owner:    owner,
		Local:    make([]uint32, n),
		Parts:    make([]PartLayout, k),
		Strategy: strat.Name(),
	}
	for i := range lay.Parts {
		lay.Parts[i] = PartLayout{
			ID:        i,
			Kind:      plan.Slots[i].Kind,
			OutCounts: make([]uint64, k),
		}
	}
	for v := uint32(0); v < n; v++ {
		s := owner[v]
		if s < 0 || int(s) >= k {
			return nil, fmt.Errorf("%w: strategy %s put vertex %d in slot %d of %d", ErrConfig, strat.Name(), v, s, k)
		}
		pl := &lay.Parts[s]
		lay.Local[v] = uint32(len(pl.Verts))
		pl.Verts = append(pl.Verts, v)
	}

	cut := uint64(0)
	for v := uint32(0); v < n; v++ {
		src := owner[v]
		pl := &lay.Parts[src]
		nbrs := g.Neighbors(v)
		pl.OwnEdges += uint64(len(nbrs))
		for _, w := range nbrs {
			dst := owner[w]
			pl.OutCounts[dst]++
			if dst != src {
				pl.Remotes = append(pl.Remotes, RemoteEdge{
					SrcLocal:  lay.Local[v],
					DstGlobal: w,
					DstPart:   dst,
				})
				pl.CutEdges++
				cut++
			}
		}
	}

	if log.Debug().Enabled() {
		for i := range lay.Parts {
			pl := &lay.Parts[i]
			log.Debug().Msg("partition " + utils.V(pl.ID) + " (" + pl.Kind.String() + "): " +
				utils.V(pl.Len()) + " vertices, " + utils.V(pl.OwnEdges) + " edges, " +
				utils.V(pl.CutEdges) + " cut")
		}
		log.Debug().Msg("layout by " + lay.Strategy + ": " + utils.V(k) + " partitions, cut " +
			utils.V(cut) + " / " + utils.V(g.EdgeCount()) + " edges")
	}
	return lay, nil
}

// CutEdges totals the cross-partition edges over all partitions.
func (lay *Layout) CutEdges() uint64 {
	total := uint64(0)
	for i := range lay.Parts {
		total += lay.Parts[i].CutEdges
	}
	return total
}

// Balance reports the vertex count of the heaviest partition over the mean,
// 1.0 meaning perfectly even.
func (lay *Layout) Balance() float64 {
	if len(lay.Parts) == 0 {
		return 1
	}
	max, total := uint32(0), uint64(0)
	for i := range lay.Parts {
		c := lay.Parts[i].Len()
		total += uint64(c)
		max = utils.Max(max, c)
	}
	if total == 0 {
		return 1
	}
	mean := float64(total) / float64(len(lay.Parts))
	return float64(max) / mean
}
