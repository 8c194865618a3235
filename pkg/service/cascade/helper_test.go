package cascade_test

import (
	"math"
	"testing"

	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

const tolerance = 1e-12

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func newRiskFile(id string, dp ...string) *model.RiskFile {
	f := &model.RiskFile{
		ID:       types.RiskFileID(id),
		HazardID: "H-" + id,
		Title:    "Risk " + id,
		RiskType: types.RiskTypeStandard,
	}
	copy(f.DirectProbability[:], dp)
	return f
}

func withImpact(f *model.RiskFile, s types.Scenario, k types.DamageIndicator, v string) *model.RiskFile {
	f.DirectImpact[s][k] = v
	return f
}

func newCascade(cause, effect string, entries map[string]string) *model.Cascade {
	m, _ := model.RawMatrixFromFields(entries)
	return &model.Cascade{
		ID:       types.CascadeID(cause + "->" + effect),
		CauseID:  types.RiskFileID(cause),
		EffectID: types.RiskFileID(effect),
		Analyses: []model.CascadeAnalysis{{Expert: "expert@example.com", Matrix: m}},
	}
}

func requireCalc(t *testing.T, calcs map[types.RiskFileID]*model.RiskCalculation, id string) *model.RiskCalculation {
	t.Helper()
	calc, ok := calcs[types.RiskFileID(id)]
	if !ok {
		t.Fatalf("no calculation for %s", id)
	}
	return calc
}
