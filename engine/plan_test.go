package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tandemgraph/tandem/device"
	"github.com/tandemgraph/tandem/graph"
)

func TestValidateRejectsBadPlans(t *testing.T) {
	g := graph.Chain(10, true)

	require.ErrorIs(t, Plan{}.Validate(g), ErrConfig)

	short := Plan{Slots: []Slot{{HostContext, 0.5}, {HostContext, 0.4}}}
	require.ErrorIs(t, short.Validate(g), ErrConfig)

	neg := Plan{Slots: []Slot{{HostContext, -0.5}, {HostContext, 1.5}}}
	require.ErrorIs(t, neg.Validate(g), ErrConfig)

	nan := Plan{Slots: []Slot{{HostContext, math.NaN()}, {HostContext, 1}}}
	require.ErrorIs(t, nan.Validate(g), ErrConfig)

	budget := HostPlan(2)
	budget.RoundBudget = -1
	require.ErrorIs(t, budget.Validate(g), ErrConfig)

	eps := HostPlan(2)
	eps.Epsilon = -0.1
	require.ErrorIs(t, eps.Validate(g), ErrConfig)

	require.ErrorIs(t, HostPlan(2).Validate(nil), ErrConfig)

	empty, err := graph.New(true, []uint64{0}, nil, nil)
	require.NoError(t, err)
	require.ErrorIs(t, HostPlan(1).Validate(empty), ErrConfig)
}

func TestValidateDeviceOversubscription(t *testing.T) {
	g := graph.Chain(10, true)
	p := SplitPlan(1, 3, 0.5)
	p.Pool = device.NewPool(2)
	require.ErrorIs(t, p.Validate(g), ErrConfig)

	p.Pool = device.NewPool(3)
	require.NoError(t, p.Validate(g))
}

func TestValidateAcceptsInexactThirds(t *testing.T) {
	g := graph.Chain(9, true)
	third := 1.0 / 3.0
	p := Plan{Slots: []Slot{{HostContext, third}, {HostContext, third}, {HostContext, third}}}
	require.NoError(t, p.Validate(g))
}

func TestHostAndSplitPlans(t *testing.T) {
	p := HostPlan(4)
	require.Len(t, p.Slots, 4)
	sum := 0.0
	for _, s := range p.Slots {
		require.Equal(t, HostContext, s.Kind)
		sum += s.Fraction
	}
	require.InDelta(t, 1.0, sum, fractionSlack)

	p = SplitPlan(2, 2, 0.6)
	require.Len(t, p.Slots, 4)
	require.Equal(t, 2, p.deviceSlots())
	require.InDelta(t, 0.2, p.Slots[0].Fraction, 1e-12)
	require.InDelta(t, 0.3, p.Slots[2].Fraction, 1e-12)
	require.Equal(t, DeviceContext, p.Slots[3].Kind)

	p = SplitPlan(2, 0, 0.5)
	require.Equal(t, 0, p.deviceSlots())
	require.Len(t, p.Slots, 2)
}

func TestVertexQuotasAbsorbRemainder(t *testing.T) {
	slots := []Slot{{HostContext, 1.0 / 3}, {HostContext, 1.0 / 3}, {HostContext, 1.0 / 3}}
	q := vertexQuotas(10, slots)
	require.Equal(t, []uint32{3, 3, 4}, q)

	q = vertexQuotas(2, slots)
	require.Equal(t, []uint32{0, 0, 2}, q)
}

func TestContiguousBlocks(t *testing.T) {
	g := graph.Chain(10, true)
	owner, err := Contiguous{}.Assign(g, []Slot{{HostContext, 0.5}, {HostContext, 0.5}})
	require.NoError(t, err)
	for v := 0; v < 10; v++ {
		want := int32(0)
		if v >= 5 {
			want = 1
		}
		require.Equal(t, want, owner[v], "vertex %d", v)
	}
}

func TestRoundRobinDeals(t *testing.T) {
	g := graph.Chain(6, true)
	owner, err := RoundRobin{}.Assign(g, []Slot{{HostContext, 0.5}, {HostContext, 0.5}})
	require.NoError(t, err)
	require.Equal(t, []int32{0, 1, 0, 1, 0, 1}, owner)
}

func TestRoundRobinRespectsQuotas(t *testing.T) {
	g := graph.Chain(4, true)
	owner, err := RoundRobin{}.Assign(g, []Slot{{HostContext, 0.25}, {HostContext, 0.75}})
	require.NoError(t, err)
	require.Equal(t, []int32{0, 1, 1, 1}, owner)
}

func TestDegreeBalancedIsolatesTheHub(t *testing.T) {
	g := graph.Star(10, true)
	owner, err := DegreeBalanced{}.Assign(g, []Slot{{HostContext, 0.5}, {HostContext, 0.5}})
	require.NoError(t, err)
	require.Equal(t, int32(0), owner[0])
	for v := 1; v < 10; v++ {
		require.Equal(t, int32(1), owner[v], "spoke %d", v)
	}
}

func TestDegreeBalancedEdgelessFallsBack(t *testing.T) {
	b := graph.NewBuilder(true).Grow(6)
	g, err := b.Build()
	require.NoError(t, err)
	owner, err := DegreeBalanced{}.Assign(g, []Slot{{HostContext, 0.5}, {HostContext, 0.5}})
	require.NoError(t, err)
	require.Equal(t, []int32{0, 0, 0, 1, 1, 1}, owner)
}

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"", "contiguous", "round-robin", "degree-balanced"} {
		s, err := ParseStrategy(name)
		require.NoError(t, err)
		require.NotNil(t, s)
	}
	_, err := ParseStrategy("hash")
	require.ErrorIs(t, err, ErrConfig)
}
