package cascade

import (
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// causeInput is one incoming cascade of the risk being aggregated together
// with the calculation of its cause
type causeInput struct {
	edge    *edge
	cause   *model.RiskCalculation
	relaxed bool
}

// aggregateRisk computes the calculation of one risk file from its direct
// estimate and its incoming cascades. For every cascade i from cause C:
//
//	ip_s     += Σ_s' C.tp_s' × M[s'→s]
//	ii_{k,s} += Σ_s' C.tp_s' × M[s'→s] × C.ti_{k,s'}   (causal cascades only)
//
// Inputs are summed in the order given, which keeps results reproducible.
func aggregateRisk(file *model.RiskFile, direct DirectEstimate, inputs []causeInput) *model.RiskCalculation {
	calc := &model.RiskCalculation{
		RiskID:            file.ID,
		HazardID:          file.HazardID,
		Title:             file.Title,
		RiskType:          file.RiskType,
		DirectProbability: direct.Probability,
		DirectImpact:      direct.Impact,
	}

	if len(inputs) > 0 {
		calc.Causes = make([]model.CascadeContribution, 0, len(inputs))
	}
	for _, in := range inputs {
		contribution := contribute(in)
		calc.IndirectProbability = calc.IndirectProbability.Add(contribution.IndirectProbability)
		calc.IndirectImpact = calc.IndirectImpact.Add(contribution.IndirectImpact)
		calc.Causes = append(calc.Causes, contribution)
	}

	calc.TotalProbability = calc.DirectProbability.Add(calc.IndirectProbability)
	calc.TotalImpact = calc.DirectImpact.Add(calc.IndirectImpact)
	calc.RelativeProbability = calc.TotalProbability.Normalize()
	calc.Risk = RiskScore(calc.TotalProbability, calc.TotalImpact)

	return calc
}

// directCalculation is the calculation of a risk file without any cascade. It
// stands in for causes that are not aggregated yet when a cycle is broken.
func directCalculation(file *model.RiskFile, direct DirectEstimate) *model.RiskCalculation {
	return aggregateRisk(file, direct, nil)
}

func contribute(in causeInput) model.CascadeContribution {
	c := in.cause
	x := model.CascadeContribution{
		CascadeID: in.edge.cascade.ID,
		CauseID:   in.edge.cascade.CauseID,
		EffectID:  in.edge.cascade.EffectID,
		Kind:      in.edge.kind,
		Title:     c.Title,
		Matrix:    in.edge.matrix,
		Relaxed:   in.relaxed,
	}

	impact := in.edge.kind.TransfersImpact()
	for _, to := range types.Scenarios {
		for _, from := range types.Scenarios {
			transferred := c.TotalProbability[from] * in.edge.matrix.At(from, to)
			x.IndirectProbability[to] += transferred
			if !impact {
				continue
			}
			for _, k := range types.Indicators {
				x.IndirectImpact[to][k] += transferred * c.TotalImpact[from][k]
			}
		}
	}

	return x
}

// RiskScore is the scalar risk of a calculation: the sum over scenarios of total
// probability times total impact of that scenario. It grows with both.
func RiskScore(tp model.ScenarioValues, ti model.ImpactMatrix) float64 {
	var r float64
	for _, s := range types.Scenarios {
		r += tp[s] * ti.Scenario(s)
	}
	return r
}
