package engine

import (
	"fmt"

	"github.com/tandemgraph/tandem/device"
	"github.com/tandemgraph/tandem/graph"
	"github.com/tandemgraph/tandem/utils"
)

// envelope is one staged message: a global destination and its payload.
type envelope[M any] struct {
	Dst  uint32
	Mail M
}

// Lane is a compute stripe's private staging area. Host partitions run one
// lane over all their vertices; device partitions run one lane per chunk so
// stripes never contend. Counters and staged mail are folded at the round
// barrier in lane order, which keeps results independent of scheduling.
type Lane[M any] struct {
	Sent   uint64  // engine-counted staged messages
	Active uint64  // algorithm-counted productive vertices
	Delta  float64 // algorithm residual contribution
	Aux    float64 // algorithm auxiliary channel

	out    [][]envelope[M] // staged mail per destination slot
	owner  []int32
	n      uint32
	badDst int64 // first out-of-range destination seen, -1 if none
}

// Send stages mail to the global vertex dst, delivered at the next round
// boundary. An out-of-range dst poisons the lane and fails the run at the
// barrier rather than dropping the message.
func (l *Lane[M]) Send(dst uint32, mail M) {
	if dst >= l.n {
		if l.badDst < 0 {
			l.badDst = int64(dst)
		}
		return
	}
	p := l.owner[dst]
	l.out[p] = append(l.out[p], envelope[M]{Dst: dst, Mail: mail})
	l.Sent++
}

func (l *Lane[M]) reset() {
	l.Sent, l.Active, l.Delta, l.Aux = 0, 0, 0, 0
	l.badDst = -1
	for d := range l.out {
		l.out[d] = l.out[d][:0]
	}
}

// Partition owns a slice of the vertex set: its state, its mailboxes, and the
// staging buffers mail moves through. Compute runs on the host inline or on a
// leased device context, chosen by the plan slot.
type Partition[S, M any] struct {
	id   int
	kind ContextKind
	lay  *PartLayout
	g    *graph.Graph
	run  *Run[S, M]
	dev  *device.Device

	// State is indexed by local id and is the algorithm's to mutate during
	// OnRound. It becomes readable across partitions only between rounds.
	State []S

	mail   []M          // merged mail per local vertex, read this round
	act    utils.Bitmap // local vertices holding fresh mail
	lanes  []*Lane[M]
	chunks int

	outbox [][]envelope[M] // folded staged mail per destination slot
	inbox  [][]envelope[M] // arrived mail per source slot, swapped in at flush
}

func newPartition[S, M any](run *Run[S, M], pl *PartLayout, dev *device.Device) *Partition[S, M] {
	n := pl.Len()
	k := len(run.lay.Parts)
	p := &Partition[S, M]{
		id:     pl.ID,
		kind:   pl.Kind,
		lay:    pl,
		g:      run.g,
		run:    run,
		dev:    dev,
		State:  make([]S, n),
		mail:   make([]M, n),
		outbox: make([][]envelope[M], k),
		inbox:  make([][]envelope[M], k),
		chunks: 1,
	}
	p.act.Grow(n)
	for v := uint32(0); v < n; v++ {
		p.State[v] = run.alg.NewState(run.g, pl.Verts[v])
		p.mail[v] = run.alg.NewMail()
	}
	for d := range p.outbox {
		if pl.OutCounts[d] > 0 && d != pl.ID {
			p.outbox[d] = make([]envelope[M], 0, pl.OutCounts[d])
		}
	}
	if p.kind == DeviceContext {
		grain := run.grain
		p.chunks = int((n + grain - 1) / grain)
		if p.chunks < 1 {
			p.chunks = 1
		}
	}
	p.lanes = make([]*Lane[M], p.chunks)
	for i := range p.lanes {
		p.lanes[i] = &Lane[M]{
			out:    make([][]envelope[M], k),
			owner:  run.lay.Owner,
			n:      run.g.VertexCount(),
			badDst: -1,
		}
	}
	return p
}

// ID is the partition's slot index.
func (p *Partition[S, M]) ID() int { return p.id }

// Kind says whether compute runs on the host or a device context.
func (p *Partition[S, M]) Kind() ContextKind { return p.kind }

// Len is the number of vertices this partition owns.
func (p *Partition[S, M]) Len() uint32 { return p.lay.Len() }

// Global maps a local id back to the global vertex id.
func (p *Partition[S, M]) Global(local uint32) uint32 { return p.lay.Verts[local] }

// Graph is the shared global graph. Partitions read their vertices' adjacency
// straight from it; there is no per-partition copy.
func (p *Partition[S, M]) Graph() *graph.Graph { return p.g }

// Layout exposes the partition's static shape.
func (p *Partition[S, M]) Layout() *PartLayout { return p.lay }

// HasMail reports whether local received mail at the last delivery.
func (p *Partition[S, M]) HasMail(local uint32) bool { return p.act.Get(local) }

// Mail is the merged mail for local this round. Meaningful only when HasMail.
func (p *Partition[S, M]) Mail(local uint32) M { return p.mail[local] }

// ForAll runs fn over every owned vertex. On a host partition the loop is
// inline on the calling goroutine; on a device partition it is chunked across
// the context's lanes. fn sees the lane it must stage mail through.
func (p *Partition[S, M]) ForAll(fn func(l *Lane[M], local uint32)) error {
	if p.kind == HostContext {
		lane := p.lanes[0]
		for local := uint32(0); local < p.Len(); local++ {
			fn(lane, local)
		}
		return nil
	}
	return p.dev.ParallelFor(p.Len(), p.run.grain, func(chunk int, lo, hi uint32) error {
		lane := p.lanes[chunk]
		for local := lo; local < hi; local++ {
			fn(lane, local)
		}
		return nil
	})
}

// ForActive runs fn over the vertices whose mailbox changed at the last
// delivery, passing the merged mail. Visit order within a lane is ascending
// local id.
func (p *Partition[S, M]) ForActive(fn func(l *Lane[M], local uint32, mail M)) error {
	if p.kind == HostContext {
		lane := p.lanes[0]
		p.act.Ones(func(local uint32) {
			fn(lane, local, p.mail[local])
		})
		return nil
	}
	return p.dev.ParallelFor(p.Len(), p.run.grain, func(chunk int, lo, hi uint32) error {
		lane := p.lanes[chunk]
		for local := lo; local < hi; local++ {
			if p.act.Get(local) {
				fn(lane, local, p.mail[local])
			}
		}
		return nil
	})
}

// fold drains every lane into the partition outbox in lane order and sums the
// round's signal. Runs at the barrier with no compute in flight.
func (p *Partition[S, M]) fold() (Signal, error) {
	var sig Signal
	for _, lane := range p.lanes {
		if lane.badDst >= 0 {
			return sig, fmt.Errorf("%w: partition %d staged mail for vertex %d, graph holds %d",
				ErrRouting, p.id, lane.badDst, p.g.VertexCount())
		}
		sig.Sent += lane.Sent
		sig.Active += lane.Active
		sig.Delta += lane.Delta
		sig.Aux += lane.Aux
		for d := range lane.out {
			if len(lane.out[d]) > 0 {
				p.outbox[d] = append(p.outbox[d], lane.out[d]...)
			}
		}
		lane.reset()
	}
	return sig, nil
}

// resetMail clears every fresh mailbox back to the identity element. Runs
// before delivery so each round reads only that round's mail.
func (p *Partition[S, M]) resetMail() {
	p.act.Ones(func(local uint32) {
		p.mail[local] = p.run.alg.NewMail()
	})
	p.act.Zeroes()
}

// mergeLocal folds mail into a local mailbox, marking the vertex active when
// the merge reports new information.
func (p *Partition[S, M]) mergeLocal(local uint32, mail M) {
	if p.run.alg.MergeMail(mail, &p.mail[local]) {
		p.act.Set(local)
	}
}

// discard drops all staged mail, used when a run is cancelled mid-flush.
func (p *Partition[S, M]) discard() {
	for d := range p.outbox {
		p.outbox[d] = p.outbox[d][:0]
	}
	for _, lane := range p.lanes {
		lane.reset()
	}
}
