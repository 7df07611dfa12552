package engine

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Plan files are HCL:
//
//	plan {
//	  strategy     = "degree-balanced"
//	  round_budget = 100
//	  epsilon      = 1e-3
//
//	  partition {
//	    context  = "host"
//	    fraction = 0.6
//	  }
//	  partition {
//	    context  = "device"
//	    fraction = 0.4
//	  }
//	}
//
// Fractions are expressions, so "1.0 / 3" splits evenly without hand-rounded
// decimals. Everything except the partition blocks is optional.
type planFile struct {
	Plan planBlock `hcl:"plan,block"`
}

type planBlock struct {
	Strategy    *string     `hcl:"strategy"`
	RoundBudget *int        `hcl:"round_budget"`
	Epsilon     *float64    `hcl:"epsilon"`
	Grain       *int        `hcl:"grain"`
	Partitions  []slotBlock `hcl:"partition,block"`
}

type slotBlock struct {
	Context  string         `hcl:"context"`
	Fraction hcl.Expression `hcl:"fraction"`
}

// LoadPlanFile reads and parses an HCL plan file. The result still goes
// through Validate at run setup; this only rejects what cannot even be
// decoded.
func LoadPlanFile(path string) (Plan, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan file: %w", err)
	}
	return ParsePlan(src, path)
}

// ParsePlan decodes HCL plan source. filename is used in diagnostics only.
func ParsePlan(src []byte, filename string) (Plan, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Plan{}, fmt.Errorf("%w: %s", ErrConfig, diags.Error())
	}
	var root planFile
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return Plan{}, fmt.Errorf("%w: %s", ErrConfig, diags.Error())
	}

	pb := root.Plan
	var plan Plan
	if pb.Strategy != nil {
		strat, err := ParseStrategy(*pb.Strategy)
		if err != nil {
			return Plan{}, err
		}
		plan.Strategy = strat
	}
	if pb.RoundBudget != nil {
		plan.RoundBudget = *pb.RoundBudget
	}
	if pb.Epsilon != nil {
		plan.Epsilon = *pb.Epsilon
	}
	if pb.Grain != nil {
		if *pb.Grain < 0 {
			return Plan{}, fmt.Errorf("%w: negative grain %d", ErrConfig, *pb.Grain)
		}
		plan.Grain = uint32(*pb.Grain)
	}
	if len(pb.Partitions) == 0 {
		return Plan{}, fmt.Errorf("%w: plan has no partition blocks", ErrConfig)
	}
	for i, sb := range pb.Partitions {
		kind, err := ParseContextKind(sb.Context)
		if err != nil {
			return Plan{}, err
		}
		frac, err := evalFraction(sb.Fraction, i)
		if err != nil {
			return Plan{}, err
		}
		plan.Slots = append(plan.Slots, Slot{Kind: kind, Fraction: frac})
	}
	return plan, nil
}

func evalFraction(expr hcl.Expression, slot int) (float64, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return 0, fmt.Errorf("%w: partition %d fraction: %s", ErrConfig, slot, diags.Error())
	}
	if val.Type() != cty.Number {
		return 0, fmt.Errorf("%w: partition %d fraction is %s, want number",
			ErrConfig, slot, val.Type().FriendlyName())
	}
	frac, _ := val.AsBigFloat().Float64()
	return frac, nil
}
