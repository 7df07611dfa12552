package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tandemgraph/tandem/graph"
)

func TestParsePlanFull(t *testing.T) {
	src := `
plan {
  strategy     = "degree-balanced"
  round_budget = 64
  epsilon      = 1e-3
  grain        = 256

  partition {
    context  = "host"
    fraction = 0.25
  }
  partition {
    context  = "device"
    fraction = 0.75
  }
}
`
	plan, err := ParsePlan([]byte(src), "full.hcl")
	require.NoError(t, err)
	require.Equal(t, "degree-balanced", plan.Strategy.Name())
	require.Equal(t, 64, plan.RoundBudget)
	require.InDelta(t, 1e-3, plan.Epsilon, 1e-12)
	require.Equal(t, uint32(256), plan.Grain)
	require.Len(t, plan.Slots, 2)
	require.Equal(t, HostContext, plan.Slots[0].Kind)
	require.Equal(t, DeviceContext, plan.Slots[1].Kind)
	require.InDelta(t, 0.75, plan.Slots[1].Fraction, 1e-12)
}

func TestParsePlanFractionExpressions(t *testing.T) {
	src := `
plan {
  partition {
    context  = "host"
    fraction = 1.0 / 3
  }
  partition {
    context  = "host"
    fraction = 2.0 / 3
  }
}
`
	plan, err := ParsePlan([]byte(src), "thirds.hcl")
	require.NoError(t, err)
	require.InDelta(t, 1.0/3.0, plan.Slots[0].Fraction, 1e-9)
	require.NoError(t, plan.Validate(graph.Chain(9, true)))
}

func TestParsePlanRejects(t *testing.T) {
	cases := []struct{ name, src string }{
		{"unclosed block", `
plan {
  partition {
    context  = "host"
    fraction = 1.0
`},
		{"no partitions", `
plan {
  strategy = "contiguous"
}
`},
		{"unknown strategy", `
plan {
  strategy = "hash"
  partition {
    context  = "host"
    fraction = 1.0
  }
}
`},
		{"unknown context", `
plan {
  partition {
    context  = "fpga"
    fraction = 1.0
  }
}
`},
		{"fraction not a number", `
plan {
  partition {
    context  = "host"
    fraction = "half"
  }
}
`},
		{"fraction names a variable", `
plan {
  partition {
    context  = "host"
    fraction = whatever
  }
}
`},
		{"negative grain", `
plan {
  grain = -4
  partition {
    context  = "host"
    fraction = 1.0
  }
}
`},
	}
	for _, tc := range cases {
		_, err := ParsePlan([]byte(tc.src), tc.name+".hcl")
		require.ErrorIs(t, err, ErrConfig, tc.name)
	}
}

func TestLoadPlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "split.hcl")
	src := `
plan {
  partition {
    context  = "host"
    fraction = 0.5
  }
  partition {
    context  = "host"
    fraction = 0.5
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	plan, err := LoadPlanFile(path)
	require.NoError(t, err)
	require.Len(t, plan.Slots, 2)

	_, err = LoadPlanFile(filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrConfig)
}
