package model_test

import (
	"sort"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

func TestRiskFile_QuantitativeFields(t *testing.T) {
	var r model.RiskFile
	unknown := r.SetQuantitativeFields(map[string]string{
		"dp_c":    "0.1",
		"di_Ha_e": "3",
		"bogus":   "1",
	})
	gt.Value(t, unknown).Equal([]string{"bogus"})
	gt.Value(t, r.DirectProbability[types.ScenarioConsiderable]).Equal("0.1")
	gt.Value(t, r.DirectImpact[types.ScenarioExtreme][types.IndicatorHa]).Equal("3")

	fields := r.QuantitativeFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	gt.Value(t, keys).Equal([]string{"di_Ha_e", "dp_c"})
}

func TestRiskFile_Validate(t *testing.T) {
	valid := &model.RiskFile{ID: "flood", Title: "Flood", RiskType: types.RiskTypeStandard}
	gt.NoError(t, valid.Validate())

	noTitle := &model.RiskFile{ID: "flood", RiskType: types.RiskTypeStandard}
	gt.Error(t, noTitle.Validate())

	badType := &model.RiskFile{ID: "flood", Title: "Flood", RiskType: "Natural"}
	gt.Error(t, badType.Validate())
}

func TestRiskFile_Copy(t *testing.T) {
	r := &model.RiskFile{ID: "flood", Qualitative: map[string]string{"definition": "water"}}
	c := r.Copy()
	c.Qualitative["definition"] = "changed"
	gt.Value(t, r.Qualitative["definition"]).Equal("water")
}

func TestRawMatrixFromFields(t *testing.T) {
	m, unknown := model.RawMatrixFromFields(map[string]string{"c2m": "0.4", "x2y": "1"})
	gt.Value(t, unknown).Equal([]string{"x2y"})
	gt.Value(t, m[types.ScenarioConsiderable][types.ScenarioMajor]).Equal("0.4")
	gt.Value(t, m.MatrixFields()).Equal(map[string]string{"c2m": "0.4"})
}
