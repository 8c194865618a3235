package cascade_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/service/cascade"
)

func TestAggregateWithoutCauses(t *testing.T) {
	x := newRiskFile("x", "0.1", "0.05", "0.01")
	withImpact(x, types.ScenarioConsiderable, types.IndicatorHa, "10")
	withImpact(x, types.ScenarioExtreme, types.IndicatorFa, "200")

	result, err := cascade.Aggregate(&model.Snapshot{RiskFiles: []*model.RiskFile{x}})
	gt.NoError(t, err).Required()

	calc := requireCalc(t, result.Calculations, "x")
	gt.Value(t, calc.TotalProbability).Equal(model.ScenarioValues{0.1, 0.05, 0.01})
	gt.Value(t, calc.IndirectProbability).Equal(model.ScenarioValues{})
	gt.Value(t, calc.IndirectImpact).Equal(model.ImpactMatrix{})
	gt.Value(t, calc.TotalImpact).Equal(calc.DirectImpact)
	approx(t, calc.Risk, 0.1*10+0.01*200)
	gt.Array(t, calc.Causes).Length(0)
	gt.Array(t, calc.Effects).Length(0)
	gt.Array(t, result.CycleBreaks).Length(0)
}

func TestAggregateSingleCausalCascade(t *testing.T) {
	x := newRiskFile("x", "0.1")
	withImpact(x, types.ScenarioConsiderable, types.IndicatorHa, "40")
	y := newRiskFile("y")

	result, err := cascade.Aggregate(&model.Snapshot{
		RiskFiles: []*model.RiskFile{y, x},
		Cascades:  []*model.Cascade{newCascade("x", "y", map[string]string{"c2c": "0.5"})},
	})
	gt.NoError(t, err).Required()

	calc := requireCalc(t, result.Calculations, "y")
	gt.Value(t, calc.IndirectProbability).Equal(model.ScenarioValues{0.05, 0, 0})
	gt.Value(t, calc.TotalProbability).Equal(model.ScenarioValues{0.05, 0, 0})
	gt.Value(t, calc.RelativeProbability).Equal(model.ScenarioValues{1, 0, 0})

	// Impact flows with the transferred probability mass
	approx(t, calc.IndirectImpact[types.ScenarioConsiderable][types.IndicatorHa], 0.05*40)
	approx(t, calc.Risk, 0.05*0.05*40)

	gt.Array(t, calc.Causes).Length(1).Required()
	gt.Value(t, calc.Causes[0].CauseID).Equal(types.RiskFileID("x"))
	gt.Value(t, calc.Causes[0].Kind).Equal(types.CascadeCausal)
	gt.Value(t, calc.Causes[0].Title).Equal("Risk x")
	gt.Bool(t, calc.Causes[0].Relaxed).False()

	cause := requireCalc(t, result.Calculations, "x")
	gt.Array(t, cause.Effects).Length(1).Required()
	gt.Value(t, cause.Effects[0].EffectID).Equal(types.RiskFileID("y"))
	gt.Value(t, cause.Effects[0].Title).Equal("Risk y")
	gt.Value(t, cause.Effects[0].IndirectProbability).Equal(calc.Causes[0].IndirectProbability)

	// Causes are aggregated before their effects
	gt.Value(t, result.Order).Equal([]types.RiskFileID{"x", "y"})
	gt.Value(t, result.List()[0].RiskID).Equal(types.RiskFileID("y"))
}

func TestAggregateSumsCauses(t *testing.T) {
	result, err := cascade.Aggregate(&model.Snapshot{
		RiskFiles: []*model.RiskFile{
			newRiskFile("a", "0.1"),
			newRiskFile("b", "0.1"),
			newRiskFile("z"),
		},
		Cascades: []*model.Cascade{
			newCascade("a", "z", map[string]string{"c2c": "0.2"}),
			newCascade("b", "z", map[string]string{"c2c": "0.3"}),
		},
	})
	gt.NoError(t, err).Required()

	calc := requireCalc(t, result.Calculations, "z")
	approx(t, calc.Causes[0].IndirectProbability[types.ScenarioConsiderable], 0.02)
	approx(t, calc.Causes[1].IndirectProbability[types.ScenarioConsiderable], 0.03)
	approx(t, calc.IndirectProbability[types.ScenarioConsiderable], 0.05)
}

func TestAggregateCycle(t *testing.T) {
	snapshot := &model.Snapshot{
		RiskFiles: []*model.RiskFile{
			newRiskFile("a", "0.1"),
			newRiskFile("b", "0.2"),
			newRiskFile("c", "0.3"),
		},
		Cascades: []*model.Cascade{
			newCascade("a", "b", map[string]string{"c2c": "0.5"}),
			newCascade("b", "c", map[string]string{"c2c": "0.5"}),
			newCascade("c", "a", map[string]string{"c2c": "0.5"}),
		},
	}

	result, err := cascade.Aggregate(snapshot)
	gt.NoError(t, err).Required()
	gt.Number(t, len(result.Calculations)).Equal(3)
	gt.Value(t, result.Order).Equal([]types.RiskFileID{"a", "b", "c"})

	// a is the first risk file in input order, so the cycle is broken there
	gt.Array(t, result.CycleBreaks).Length(1).Required()
	gt.Value(t, result.CycleBreaks[0].RiskID).Equal(types.RiskFileID("a"))
	gt.Value(t, result.CycleBreaks[0].UnresolvedCauses).Equal([]types.RiskFileID{"c"})

	a := requireCalc(t, result.Calculations, "a")
	gt.Bool(t, a.Causes[0].Relaxed).True()
	approx(t, a.IndirectProbability[types.ScenarioConsiderable], 0.3*0.5)

	b := requireCalc(t, result.Calculations, "b")
	approx(t, b.IndirectProbability[types.ScenarioConsiderable], a.TotalProbability[types.ScenarioConsiderable]*0.5)

	c := requireCalc(t, result.Calculations, "c")
	approx(t, c.IndirectProbability[types.ScenarioConsiderable], b.TotalProbability[types.ScenarioConsiderable]*0.5)

	cycles, err := cascade.Cycles(snapshot)
	gt.NoError(t, err).Required()
	gt.Value(t, cycles).Equal([][]types.RiskFileID{{"a", "b", "c"}})
}

func TestAggregateDownstreamOfCycle(t *testing.T) {
	// d comes first in input order but only depends on the a <-> b cycle
	result, err := cascade.Aggregate(&model.Snapshot{
		RiskFiles: []*model.RiskFile{
			newRiskFile("d", "0.1"),
			newRiskFile("a", "0.1"),
			newRiskFile("b", "0.2"),
		},
		Cascades: []*model.Cascade{
			newCascade("a", "b", map[string]string{"c2c": "0.5"}),
			newCascade("b", "a", map[string]string{"c2c": "0.5"}),
			newCascade("a", "d", map[string]string{"c2c": "1"}),
		},
	})
	gt.NoError(t, err).Required()

	gt.Value(t, result.Order).Equal([]types.RiskFileID{"a", "d", "b"})
	gt.Array(t, result.CycleBreaks).Length(1).Required()
	gt.Value(t, result.CycleBreaks[0]).Equal(cascade.CycleBreak{
		RiskID:           "a",
		UnresolvedCauses: []types.RiskFileID{"b"},
	})

	a := requireCalc(t, result.Calculations, "a")
	approx(t, a.TotalProbability[types.ScenarioConsiderable], 0.1+0.2*0.5)
	gt.Bool(t, a.Causes[0].Relaxed).True()

	d := requireCalc(t, result.Calculations, "d")
	gt.Bool(t, d.Causes[0].Relaxed).False()
	approx(t, d.IndirectProbability[types.ScenarioConsiderable], a.TotalProbability[types.ScenarioConsiderable])

	b := requireCalc(t, result.Calculations, "b")
	gt.Bool(t, b.Causes[0].Relaxed).False()
	approx(t, b.IndirectProbability[types.ScenarioConsiderable], a.TotalProbability[types.ScenarioConsiderable]*0.5)
}

func TestAggregateCycleFedByOtherCycle(t *testing.T) {
	// c <-> d only waits on a <-> b, so it is broken after a and b are done
	result, err := cascade.Aggregate(&model.Snapshot{
		RiskFiles: []*model.RiskFile{
			newRiskFile("c", "0.1"),
			newRiskFile("d", "0.1"),
			newRiskFile("a", "0.1"),
			newRiskFile("b", "0.1"),
		},
		Cascades: []*model.Cascade{
			newCascade("c", "d", map[string]string{"c2c": "0.5"}),
			newCascade("d", "c", map[string]string{"c2c": "0.5"}),
			newCascade("a", "b", map[string]string{"c2c": "0.5"}),
			newCascade("b", "a", map[string]string{"c2c": "0.5"}),
			newCascade("b", "d", map[string]string{"c2c": "0.5"}),
		},
	})
	gt.NoError(t, err).Required()

	gt.Value(t, result.Order).Equal([]types.RiskFileID{"a", "b", "c", "d"})
	gt.Value(t, result.CycleBreaks).Equal([]cascade.CycleBreak{
		{RiskID: "a", UnresolvedCauses: []types.RiskFileID{"b"}},
		{RiskID: "c", UnresolvedCauses: []types.RiskFileID{"d"}},
	})

	// d gets the aggregate of b, not its direct estimate
	b := requireCalc(t, result.Calculations, "b")
	d := requireCalc(t, result.Calculations, "d")
	gt.Array(t, d.Causes).Length(2).Required()
	gt.Value(t, d.Causes[1].CauseID).Equal(types.RiskFileID("b"))
	gt.Bool(t, d.Causes[1].Relaxed).False()
	approx(t, d.Causes[1].IndirectProbability[types.ScenarioConsiderable], b.TotalProbability[types.ScenarioConsiderable]*0.5)
}

func TestCyclesWithoutCycle(t *testing.T) {
	cycles, err := cascade.Cycles(&model.Snapshot{
		RiskFiles: []*model.RiskFile{newRiskFile("a"), newRiskFile("b")},
		Cascades:  []*model.Cascade{newCascade("a", "b", nil)},
	})
	gt.NoError(t, err)
	gt.Array(t, cycles).Length(0)
}

func TestAggregateCatalysingCascade(t *testing.T) {
	ai := newRiskFile("ai", "0.4")
	ai.RiskType = types.RiskTypeEmerging
	withImpact(ai, types.ScenarioMajor, types.IndicatorEa, "100")

	cyber := newRiskFile("cyber", "0", "0.2")
	// The emerging risk acts through its own cause
	root := newRiskFile("root", "0", "0.5")
	withImpact(root, types.ScenarioMajor, types.IndicatorFb, "30")

	result, err := cascade.Aggregate(&model.Snapshot{
		RiskFiles: []*model.RiskFile{root, ai, cyber},
		Cascades: []*model.Cascade{
			newCascade("root", "ai", map[string]string{"m2m": "1"}),
			newCascade("ai", "cyber", map[string]string{"m2m": "0.5"}),
		},
	})
	gt.NoError(t, err).Required()

	emerging := requireCalc(t, result.Calculations, "ai")
	gt.Value(t, emerging.DirectProbability).Equal(model.ScenarioValues{})
	approx(t, emerging.TotalProbability[types.ScenarioMajor], 0.5)

	calc := requireCalc(t, result.Calculations, "cyber")
	gt.Value(t, calc.Causes[0].Kind).Equal(types.CascadeCatalysing)
	approx(t, calc.IndirectProbability[types.ScenarioMajor], 0.25)
	gt.Value(t, calc.IndirectImpact).Equal(model.ImpactMatrix{})

	var kinds []cascade.Reason
	for _, d := range result.Diagnostics {
		kinds = append(kinds, d.Reason)
	}
	gt.Array(t, kinds).Has(cascade.ReasonEmergingDirect)
}

func TestAggregateKindMismatch(t *testing.T) {
	c := newCascade("a", "b", map[string]string{"c2c": "1"})
	c.Kind = types.CascadeCatalysing

	result, err := cascade.Aggregate(&model.Snapshot{
		RiskFiles: []*model.RiskFile{newRiskFile("a", "0.1"), newRiskFile("b")},
		Cascades:  []*model.Cascade{c},
	})
	gt.NoError(t, err).Required()
	gt.Array(t, result.Diagnostics).Length(1).Required()
	gt.Value(t, result.Diagnostics[0].Reason).Equal(cascade.ReasonKindMismatch)
	gt.Value(t, requireCalc(t, result.Calculations, "b").Causes[0].Kind).Equal(types.CascadeCatalysing)
}

func TestAggregateInvalidCatalogue(t *testing.T) {
	t.Run("unknown cause", func(t *testing.T) {
		_, err := cascade.Aggregate(&model.Snapshot{
			RiskFiles: []*model.RiskFile{newRiskFile("b")},
			Cascades:  []*model.Cascade{newCascade("missing", "b", nil)},
		})
		gt.Error(t, err).Is(cascade.ErrInvalidGraphReference)
	})

	t.Run("unknown effect", func(t *testing.T) {
		_, err := cascade.Aggregate(&model.Snapshot{
			RiskFiles: []*model.RiskFile{newRiskFile("a")},
			Cascades:  []*model.Cascade{newCascade("a", "missing", nil)},
		})
		gt.Error(t, err).Is(cascade.ErrInvalidGraphReference)
	})

	t.Run("self cascade", func(t *testing.T) {
		_, err := cascade.Aggregate(&model.Snapshot{
			RiskFiles: []*model.RiskFile{newRiskFile("a")},
			Cascades:  []*model.Cascade{newCascade("a", "a", nil)},
		})
		gt.Error(t, err).Is(cascade.ErrInvalidCascade)
	})

	t.Run("same pair twice", func(t *testing.T) {
		second := newCascade("a", "b", nil)
		second.ID = "other"
		_, err := cascade.Aggregate(&model.Snapshot{
			RiskFiles: []*model.RiskFile{newRiskFile("a"), newRiskFile("b")},
			Cascades:  []*model.Cascade{newCascade("a", "b", nil), second},
		})
		gt.Error(t, err).Is(cascade.ErrInvalidCascade)
	})

	t.Run("unknown kind", func(t *testing.T) {
		x := newRiskFile("x", "0.1")
		withImpact(x, types.ScenarioConsiderable, types.IndicatorHa, "10")
		c := newCascade("x", "y", map[string]string{"c2c": "1"})
		c.Kind = "nonsense"
		_, err := cascade.Aggregate(&model.Snapshot{
			RiskFiles: []*model.RiskFile{x, newRiskFile("y")},
			Cascades:  []*model.Cascade{c},
		})
		gt.Error(t, err).Is(cascade.ErrInvalidCascade)
	})

	t.Run("duplicate risk file", func(t *testing.T) {
		_, err := cascade.Aggregate(&model.Snapshot{
			RiskFiles: []*model.RiskFile{newRiskFile("a"), newRiskFile("a")},
		})
		gt.Error(t, err).Is(cascade.ErrDuplicateRiskFile)
	})

	t.Run("nil risk file", func(t *testing.T) {
		_, err := cascade.Aggregate(&model.Snapshot{RiskFiles: []*model.RiskFile{nil}})
		gt.Error(t, err).Is(cascade.ErrInvalidRiskFile)
	})
}

// chainSnapshot builds a catalogue with several independent parts, a cycle
// and risk files with more than one cause
func chainSnapshot(dp string) *model.Snapshot {
	s := &model.Snapshot{}
	for part := 0; part < 5; part++ {
		for i := 0; i < 6; i++ {
			id := fmt.Sprintf("p%d-%d", part, i)
			f := newRiskFile(id, dp, "0.03", "0.007")
			withImpact(f, types.ScenarioConsiderable, types.IndicatorHb, "3.3")
			withImpact(f, types.ScenarioMajor, types.IndicatorSc, "17.1")
			withImpact(f, types.ScenarioExtreme, types.IndicatorFa, "1234.5")
			s.RiskFiles = append(s.RiskFiles, f)
		}
		for i := 0; i < 5; i++ {
			s.Cascades = append(s.Cascades, newCascade(
				fmt.Sprintf("p%d-%d", part, i),
				fmt.Sprintf("p%d-%d", part, i+1),
				map[string]string{"c2c": "0.3", "c2m": "0.1", "m2e": "0.2", "e2e": "0.9"},
			))
		}
		s.Cascades = append(s.Cascades,
			newCascade(fmt.Sprintf("p%d-0", part), fmt.Sprintf("p%d-3", part), map[string]string{"c2m": "0.4"}),
			newCascade(fmt.Sprintf("p%d-5", part), fmt.Sprintf("p%d-1", part), map[string]string{"m2m": "0.6"}),
		)
	}
	return s
}

func TestAggregateProperties(t *testing.T) {
	result, err := cascade.Aggregate(chainSnapshot("0.1"))
	gt.NoError(t, err).Required()
	gt.Number(t, len(result.Calculations)).Equal(30)

	for _, calc := range result.List() {
		for _, s := range types.Scenarios {
			gt.Value(t, calc.TotalProbability[s]).Equal(calc.DirectProbability[s] + calc.IndirectProbability[s])
			for _, k := range types.Indicators {
				gt.Value(t, calc.TotalImpact[s][k]).Equal(calc.DirectImpact[s][k] + calc.IndirectImpact[s][k])
			}
		}

		sum := calc.RelativeProbability.Sum()
		if calc.TotalProbability.Sum() == 0 {
			gt.Value(t, sum).Equal(0.0)
		} else {
			approx(t, sum, 1)
		}
		gt.Number(t, calc.Risk).GreaterOrEqual(0)

		if len(calc.Causes) == 0 {
			gt.Value(t, calc.TotalProbability).Equal(calc.DirectProbability)
		}
	}
}

// conditionalSnapshot links x to y through one causal cascade whose m2e entry
// is given, and y to z
func conditionalSnapshot(m2e string) *model.Snapshot {
	x := newRiskFile("x", "0.2", "0.05", "0.01")
	withImpact(x, types.ScenarioConsiderable, types.IndicatorHa, "4")
	withImpact(x, types.ScenarioMajor, types.IndicatorHb, "30")
	withImpact(x, types.ScenarioMajor, types.IndicatorFa, "120")
	withImpact(x, types.ScenarioExtreme, types.IndicatorSc, "800")
	y := newRiskFile("y", "0.01", "0.001", "0.0001")
	withImpact(y, types.ScenarioExtreme, types.IndicatorEa, "50")
	z := newRiskFile("z")

	return &model.Snapshot{
		RiskFiles: []*model.RiskFile{x, y, z},
		Cascades: []*model.Cascade{
			newCascade("x", "y", map[string]string{"c2c": "0.3", "m2m": "0.2", "m2e": m2e, "e2e": "0.5"}),
			newCascade("y", "z", map[string]string{"e2e": "0.4", "m2e": "0.1"}),
		},
	}
}

func TestAggregateMonotonic(t *testing.T) {
	low, err := cascade.Aggregate(conditionalSnapshot("0.1"))
	gt.NoError(t, err).Required()
	high, err := cascade.Aggregate(conditionalSnapshot("0.6"))
	gt.NoError(t, err).Required()

	for _, id := range []string{"y", "z"} {
		before := requireCalc(t, low.Calculations, id)
		after := requireCalc(t, high.Calculations, id)
		for _, s := range types.Scenarios {
			gt.Number(t, after.IndirectProbability[s]).GreaterOrEqual(before.IndirectProbability[s])
			for _, k := range types.Indicators {
				gt.Number(t, after.IndirectImpact[s][k]).GreaterOrEqual(before.IndirectImpact[s][k])
			}
		}
		gt.Number(t, after.Risk).GreaterOrEqual(before.Risk)
	}

	// The raised entry moves mass into the extreme scenario of y
	y := requireCalc(t, high.Calculations, "y")
	gt.Number(t, y.IndirectProbability[types.ScenarioExtreme]).
		Greater(requireCalc(t, low.Calculations, "y").IndirectProbability[types.ScenarioExtreme])
	gt.Number(t, y.IndirectImpact[types.ScenarioExtreme][types.IndicatorFa]).
		Greater(requireCalc(t, low.Calculations, "y").IndirectImpact[types.ScenarioExtreme][types.IndicatorFa])

	// The cause itself is untouched
	gt.Value(t, requireCalc(t, high.Calculations, "x").TotalProbability).
		Equal(requireCalc(t, low.Calculations, "x").TotalProbability)
	gt.Value(t, requireCalc(t, high.Calculations, "x").TotalImpact).
		Equal(requireCalc(t, low.Calculations, "x").TotalImpact)
}

func TestAggregateDeterministic(t *testing.T) {
	snapshot := chainSnapshot("0.1")

	first, err := cascade.Aggregate(snapshot)
	gt.NoError(t, err).Required()
	want, err := json.Marshal(first.List())
	gt.NoError(t, err).Required()

	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			result, err := cascade.Aggregate(snapshot, cascade.WithWorkers(workers))
			gt.NoError(t, err).Required()
			got, err := json.Marshal(result.List())
			gt.NoError(t, err).Required()
			gt.Value(t, string(got)).Equal(string(want))
			gt.Value(t, result.CycleBreaks).Equal(first.CycleBreaks)
			gt.Value(t, result.Order).Equal(first.Order)
		})
	}
}
