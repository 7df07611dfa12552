package engine

import (
	"fmt"
	"math"

	"github.com/tandemgraph/tandem/device"
	"github.com/tandemgraph/tandem/graph"
)

// ContextKind says where a partition's compute runs.
type ContextKind uint8

const (
	HostContext ContextKind = iota
	DeviceContext
)

func (k ContextKind) String() string {
	if k == DeviceContext {
		return "device"
	}
	return "host"
}

// ParseContextKind maps the plan-file spelling of a context to its kind.
func ParseContextKind(s string) (ContextKind, error) {
	switch s {
	case "host", "cpu":
		return HostContext, nil
	case "device", "gpu", "accel":
		return DeviceContext, nil
	}
	return HostContext, fmt.Errorf("%w: unknown context %q", ErrConfig, s)
}

// Slot describes one partition to be: where it runs and what share of the
// vertex set it owns.
type Slot struct {
	Kind     ContextKind
	Fraction float64
}

// Plan is the full partitioned-execution configuration for a run.
// Zero-valued optional fields fall back: Strategy to Contiguous, RoundBudget
// to the algorithm's own budget, Grain to DefaultGrain, Pool to the process
// pool.
type Plan struct {
	Slots       []Slot
	Strategy    Strategy
	RoundBudget int
	Epsilon     float64
	Grain       uint32
	Pool        *device.Pool
}

// DefaultGrain is the device chunk width when a plan does not pick one.
const DefaultGrain = 1024

const fractionSlack = 1e-6

// HostPlan is a plan of parts equal host partitions.
func HostPlan(parts int) Plan {
	if parts < 1 {
		parts = 1
	}
	slots := make([]Slot, parts)
	for i := range slots {
		slots[i] = Slot{Kind: HostContext, Fraction: 1.0 / float64(parts)}
	}
	return Plan{Slots: slots}
}

// SplitPlan spreads devFraction of the vertices over devParts device
// partitions and the rest over hostParts host partitions, mirroring the
// classic cpu+accelerator split.
func SplitPlan(hostParts, devParts int, devFraction float64) Plan {
	if hostParts < 1 {
		hostParts = 1
	}
	if devParts < 0 {
		devParts = 0
	}
	if devParts == 0 {
		return HostPlan(hostParts)
	}
	slots := make([]Slot, 0, hostParts+devParts)
	for i := 0; i < hostParts; i++ {
		slots = append(slots, Slot{Kind: HostContext, Fraction: (1 - devFraction) / float64(hostParts)})
	}
	for i := 0; i < devParts; i++ {
		slots = append(slots, Slot{Kind: DeviceContext, Fraction: devFraction / float64(devParts)})
	}
	return Plan{Slots: slots}
}

// Validate rejects plans the engine cannot honor. The graph must be non-empty,
// every fraction positive and finite, fractions must sum to one within a small
// slack, and device slots must not outnumber the pool.
func (p Plan) Validate(g *graph.Graph) error {
	if g == nil || g.VertexCount() == 0 {
		return fmt.Errorf("%w: empty graph", ErrConfig)
	}
	if len(p.Slots) == 0 {
		return fmt.Errorf("%w: no partition slots", ErrConfig)
	}
	sum := 0.0
	devSlots := 0
	for i, s := range p.Slots {
		if math.IsNaN(s.Fraction) || math.IsInf(s.Fraction, 0) || s.Fraction <= 0 {
			return fmt.Errorf("%w: slot %d fraction %v", ErrConfig, i, s.Fraction)
		}
		if s.Kind == DeviceContext {
			devSlots++
		}
		sum += s.Fraction
	}
	if math.Abs(sum-1.0) > fractionSlack {
		return fmt.Errorf("%w: fractions sum to %v, want 1", ErrConfig, sum)
	}
	if devSlots > 0 {
		if avail := p.pool().Size(); devSlots > avail {
			return fmt.Errorf("%w: %d device slots but pool holds %d", ErrConfig, devSlots, avail)
		}
	}
	if p.RoundBudget < 0 {
		return fmt.Errorf("%w: negative round budget %d", ErrConfig, p.RoundBudget)
	}
	if p.Epsilon < 0 {
		return fmt.Errorf("%w: negative epsilon %v", ErrConfig, p.Epsilon)
	}
	return nil
}

func (p Plan) strategy() Strategy {
	if p.Strategy == nil {
		return Contiguous{}
	}
	return p.Strategy
}

func (p Plan) grain() uint32 {
	if p.Grain == 0 {
		return DefaultGrain
	}
	return p.Grain
}

func (p Plan) pool() *device.Pool {
	if p.Pool == nil {
		return device.DefaultPool()
	}
	return p.Pool
}

func (p Plan) deviceSlots() int {
	count := 0
	for _, s := range p.Slots {
		if s.Kind == DeviceContext {
			count++
		}
	}
	return count
}

// vertexQuotas turns fractions into vertex counts. Each slot gets the floor of
// its share; the last slot absorbs the rounding remainder so every vertex has
// exactly one home.
func vertexQuotas(n uint32, slots []Slot) []uint32 {
	quotas := make([]uint32, len(slots))
	assigned := uint32(0)
	for i, s := range slots {
		quotas[i] = uint32(s.Fraction * float64(n))
		assigned += quotas[i]
	}
	quotas[len(quotas)-1] += n - assigned
	return quotas
}

// Strategy decides which slot owns each vertex. Assign returns owner[v] in
// [0, len(slots)) for every global vertex v, and must be deterministic for a
// given graph and slot list.
type Strategy interface {
	Name() string
	Assign(g *graph.Graph, slots []Slot) (owner []int32, err error)
}

// ParseStrategy maps a plan-file strategy name to its implementation.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", Contiguous{}.Name():
		return Contiguous{}, nil
	case RoundRobin{}.Name():
		return RoundRobin{}, nil
	case DegreeBalanced{}.Name():
		return DegreeBalanced{}, nil
	}
	return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfig, name)
}

// Contiguous assigns each slot one block of consecutive vertex ids, sized by
// its fraction. Cheap, cache friendly, and the default.
type Contiguous struct{}

func (Contiguous) Name() string { return "contiguous" }

func (Contiguous) Assign(g *graph.Graph, slots []Slot) ([]int32, error) {
	n := g.VertexCount()
	quotas := vertexQuotas(n, slots)
	owner := make([]int32, n)
	v := uint32(0)
	for s, q := range quotas {
		for end := v + q; v < end; v++ {
			owner[v] = int32(s)
		}
	}
	return owner, nil
}

// RoundRobin deals vertices to slots cyclically until each slot's quota is
// full. Spreads hub vertices across partitions at the price of a larger cut.
type RoundRobin struct{}

func (RoundRobin) Name() string { return "round-robin" }

func (RoundRobin) Assign(g *graph.Graph, slots []Slot) ([]int32, error) {
	n := g.VertexCount()
	quotas := vertexQuotas(n, slots)
	owner := make([]int32, n)
	s := 0
	for v := uint32(0); v < n; v++ {
		for quotas[s] == 0 {
			s = (s + 1) % len(slots)
		}
		owner[v] = int32(s)
		quotas[s]--
		s = (s + 1) % len(slots)
	}
	return owner, nil
}

// DegreeBalanced cuts the id range into blocks holding roughly each slot's
// fraction of the edges rather than of the vertices, so partitions see similar
// compute per round on skewed graphs.
type DegreeBalanced struct{}

func (DegreeBalanced) Name() string { return "degree-balanced" }

func (DegreeBalanced) Assign(g *graph.Graph, slots []Slot) ([]int32, error) {
	n := g.VertexCount()
	m := g.EdgeCount()
	if m == 0 {
		return Contiguous{}.Assign(g, slots)
	}
	owner := make([]int32, n)
	target := 0.0
	acc := 0.0
	s := 0
	for v := uint32(0); v < n; v++ {
		for s < len(slots)-1 && acc >= target+slots[s].Fraction*float64(m) {
			target += slots[s].Fraction * float64(m)
			s++
		}
		owner[v] = int32(s)
		acc += float64(g.OutDegree(v))
	}
	return owner, nil
}
