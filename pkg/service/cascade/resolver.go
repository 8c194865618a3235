package cascade

import (
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// ResolveMatrix turns the expert analyses of a cascade into numeric conditional
// probabilities. Each entry is the mean over the analyses in which it parses,
// 0 when none does. Entries are clamped to [0,1]. It never fails.
func ResolveMatrix(c *model.Cascade) (model.ConditionalMatrix, []Diagnostic) {
	var matrix model.ConditionalMatrix
	var diags []Diagnostic

	if len(c.Analyses) == 0 {
		diags = append(diags, Diagnostic{CascadeID: c.ID, Reason: ReasonUnknownAnalysis})
		return matrix, diags
	}

	for _, from := range types.Scenarios {
		for _, to := range types.Scenarios {
			var sum float64
			var n int
			for _, a := range c.Analyses {
				raw := a.Matrix[from][to]
				v, reason := readProbability(raw)
				if reason != "" {
					diags = append(diags, Diagnostic{
						CascadeID: c.ID,
						Field:     types.MatrixField(from, to),
						Raw:       raw,
						Reason:    reason,
					})
				}
				if raw == "" || reason == ReasonUnparseable {
					continue
				}
				sum += v
				n++
			}
			if n > 0 {
				matrix[from][to] = sum / float64(n)
			}
		}
	}

	return matrix, diags
}
