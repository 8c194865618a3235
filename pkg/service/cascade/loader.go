package cascade

import (
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// DirectEstimate is a risk file's self-reported probability and impact per scenario
type DirectEstimate struct {
	Probability model.ScenarioValues
	Impact      model.ImpactMatrix
}

// LoadDirectEstimate extracts the direct estimate of a risk file. It never
// fails: missing and unparseable fields become 0, negative values are clamped
// to 0 and probabilities above 1 to 1. Emerging risks have no direct probability.
func LoadDirectEstimate(file *model.RiskFile) (DirectEstimate, []Diagnostic) {
	var est DirectEstimate
	var diags []Diagnostic

	report := func(field, raw string, reason Reason) {
		if reason == "" {
			return
		}
		diags = append(diags, Diagnostic{RiskID: file.ID, Field: field, Raw: raw, Reason: reason})
	}

	for _, s := range types.Scenarios {
		raw := file.DirectProbability[s]
		field := types.ScenarioField(types.PrefixDirectProbability, s)
		if file.RiskType.IsEmerging() {
			if raw != "" {
				report(field, raw, ReasonEmergingDirect)
			}
			continue
		}
		v, reason := readProbability(raw)
		report(field, raw, reason)
		est.Probability[s] = v
	}

	for _, s := range types.Scenarios {
		for _, k := range types.Indicators {
			raw := file.DirectImpact[s][k]
			v, reason := readImpact(raw)
			report(types.ImpactField(types.PrefixDirectImpact, k, s), raw, reason)
			est.Impact[s][k] = v
		}
	}

	return est, diags
}
