package model

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// RiskCalculation is the aggregated result for one risk file. It is built once
// per aggregation run and never mutated afterwards.
type RiskCalculation struct {
	RiskID   types.RiskFileID
	HazardID string
	Title    string
	RiskType types.RiskType

	DirectProbability   ScenarioValues
	IndirectProbability ScenarioValues
	TotalProbability    ScenarioValues
	RelativeProbability ScenarioValues

	DirectImpact   ImpactMatrix
	IndirectImpact ImpactMatrix
	TotalImpact    ImpactMatrix

	// Risk is the scalar risk score r
	Risk float64

	// Causes has one record per incoming cascade, in catalogue order
	Causes []CascadeContribution
	// Effects has one record per outgoing cascade, in catalogue order
	Effects []CascadeContribution
}

// CascadeContribution is what one cascade contributed to its effect risk
type CascadeContribution struct {
	CascadeID types.CascadeID
	CauseID   types.RiskFileID
	EffectID  types.RiskFileID
	Kind      types.CascadeKind

	// Title is the title of the risk at the other end of the cascade
	Title string

	Matrix              ConditionalMatrix
	IndirectProbability ScenarioValues
	// IndirectImpact is zero for catalysing cascades
	IndirectImpact ImpactMatrix

	// Relaxed is set when the cause was not aggregated yet because of a cycle
	// and its direct estimate was used instead
	Relaxed bool
}

// Copy returns a deep copy of the calculation
func (c *RiskCalculation) Copy() *RiskCalculation {
	cp := *c
	cp.Causes = append([]CascadeContribution(nil), c.Causes...)
	cp.Effects = append([]CascadeContribution(nil), c.Effects...)
	return &cp
}

// Fields returns every numeric field of the calculation keyed by its public
// name: dp_c ... dp, ip_*, tp_*, rp_*, di_{k}_{s}, di_{k}, di_{s}, di_{category},
// di and the same for ii and ti, and r.
func (c *RiskCalculation) Fields() map[string]float64 {
	fields := make(map[string]float64, 160)

	probabilities := []struct {
		prefix string
		values ScenarioValues
	}{
		{types.PrefixDirectProbability, c.DirectProbability},
		{types.PrefixIndirectProbability, c.IndirectProbability},
		{types.PrefixTotalProbability, c.TotalProbability},
	}
	for _, p := range probabilities {
		putScenarioFields(fields, p.prefix, p.values)
		fields[p.prefix] = p.values.Sum()
	}
	for _, s := range types.Scenarios {
		fields[types.ScenarioField(types.PrefixRelativeProbability, s)] = c.RelativeProbability[s]
	}

	putImpactFields(fields, types.PrefixDirectImpact, c.DirectImpact)
	putImpactFields(fields, types.PrefixIndirectImpact, c.IndirectImpact)
	putImpactFields(fields, types.PrefixTotalImpact, c.TotalImpact)

	fields[types.FieldRisk] = c.Risk
	return fields
}

// Field returns a single numeric field by its public name
func (c *RiskCalculation) Field(name string) (float64, bool) {
	v, ok := c.Fields()[name]
	return v, ok
}

// Fields returns the numeric fields of the contribution: c2c ... e2e,
// ip_{s}, ip, ii_{k}_{s}, ii_{k}, ii_{s}, ii_{category} and ii.
func (x *CascadeContribution) Fields() map[string]float64 {
	fields := x.Matrix.Fields()
	putScenarioFields(fields, types.PrefixIndirectProbability, x.IndirectProbability)
	fields[types.PrefixIndirectProbability] = x.IndirectProbability.Sum()
	putImpactFields(fields, types.PrefixIndirectImpact, x.IndirectImpact)
	return fields
}

func putScenarioFields(fields map[string]float64, prefix string, values ScenarioValues) {
	for _, s := range types.Scenarios {
		fields[types.ScenarioField(prefix, s)] = values[s]
	}
}

func putImpactFields(fields map[string]float64, prefix string, m ImpactMatrix) {
	for _, s := range types.Scenarios {
		for _, k := range types.Indicators {
			fields[types.ImpactField(prefix, k, s)] = m[s][k]
		}
		fields[types.ScenarioField(prefix, s)] = m.Scenario(s)
	}
	for _, k := range types.Indicators {
		fields[types.IndicatorField(prefix, k)] = m.Indicator(k)
	}
	for _, cat := range types.Categories {
		fields[types.CategoryField(prefix, cat)] = m.Category(cat)
	}
	fields[prefix] = m.Total()
}

// MarshalJSON encodes the calculation as a flat record of named numeric fields
// with nested causes and effects.
func (c *RiskCalculation) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 170)
	for k, v := range c.Fields() {
		out[k] = v
	}
	out["riskId"] = c.RiskID
	out["hazardId"] = c.HazardID
	out["title"] = c.Title
	out["riskType"] = c.RiskType

	causes := make([]map[string]any, 0, len(c.Causes))
	for i := range c.Causes {
		causes = append(causes, contributionRecord(&c.Causes[i], c.Causes[i].CauseID))
	}
	effects := make([]map[string]any, 0, len(c.Effects))
	for i := range c.Effects {
		effects = append(effects, contributionRecord(&c.Effects[i], c.Effects[i].EffectID))
	}
	out["causes"] = causes
	out["effects"] = effects

	return json.Marshal(out)
}

func contributionRecord(x *CascadeContribution, counterpart types.RiskFileID) map[string]any {
	rec := make(map[string]any, 64)
	for k, v := range x.Fields() {
		rec[k] = v
	}
	rec["riskId"] = counterpart
	rec["cascadeId"] = x.CascadeID
	rec["title"] = x.Title
	rec["kind"] = x.Kind
	rec["relaxed"] = x.Relaxed
	return rec
}

type calculationJSON struct {
	RiskID   types.RiskFileID   `json:"riskId"`
	HazardID string             `json:"hazardId"`
	Title    string             `json:"title"`
	RiskType types.RiskType     `json:"riskType"`
	Causes   []contributionJSON `json:"causes"`
	Effects  []contributionJSON `json:"effects"`
}

type contributionJSON struct {
	RiskID    types.RiskFileID  `json:"riskId"`
	CascadeID types.CascadeID   `json:"cascadeId"`
	Title     string            `json:"title"`
	Kind      types.CascadeKind `json:"kind"`
	Relaxed   bool              `json:"relaxed"`
	numbers   map[string]float64
}

func (x *contributionJSON) UnmarshalJSON(data []byte) error {
	type alias contributionJSON
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	numbers, err := decodeNumbers(data)
	if err != nil {
		return err
	}
	*x = contributionJSON(a)
	x.numbers = numbers
	return nil
}

// UnmarshalJSON decodes the flat record produced by MarshalJSON. Per scenario
// fields are read, roll-ups are derived from them again.
func (c *RiskCalculation) UnmarshalJSON(data []byte) error {
	var head calculationJSON
	if err := json.Unmarshal(data, &head); err != nil {
		return goerr.Wrap(err, "failed to decode risk calculation")
	}
	numbers, err := decodeNumbers(data)
	if err != nil {
		return goerr.Wrap(err, "failed to decode risk calculation fields")
	}

	calc := RiskCalculation{
		RiskID:   head.RiskID,
		HazardID: head.HazardID,
		Title:    head.Title,
		RiskType: head.RiskType,
	}
	calc.DirectProbability = readScenarioFields(numbers, types.PrefixDirectProbability)
	calc.IndirectProbability = readScenarioFields(numbers, types.PrefixIndirectProbability)
	calc.TotalProbability = readScenarioFields(numbers, types.PrefixTotalProbability)
	calc.RelativeProbability = readScenarioFields(numbers, types.PrefixRelativeProbability)
	calc.DirectImpact = readImpactFields(numbers, types.PrefixDirectImpact)
	calc.IndirectImpact = readImpactFields(numbers, types.PrefixIndirectImpact)
	calc.TotalImpact = readImpactFields(numbers, types.PrefixTotalImpact)
	calc.Risk = numbers[types.FieldRisk]

	for _, rec := range head.Causes {
		calc.Causes = append(calc.Causes, rec.toContribution(rec.RiskID, head.RiskID))
	}
	for _, rec := range head.Effects {
		calc.Effects = append(calc.Effects, rec.toContribution(head.RiskID, rec.RiskID))
	}

	*c = calc
	return nil
}

func (x *contributionJSON) toContribution(cause, effect types.RiskFileID) CascadeContribution {
	var matrix ConditionalMatrix
	for _, from := range types.Scenarios {
		for _, to := range types.Scenarios {
			matrix[from][to] = x.numbers[types.MatrixField(from, to)]
		}
	}
	return CascadeContribution{
		CascadeID:           x.CascadeID,
		CauseID:             cause,
		EffectID:            effect,
		Kind:                x.Kind,
		Title:               x.Title,
		Matrix:              matrix,
		IndirectProbability: readScenarioFields(x.numbers, types.PrefixIndirectProbability),
		IndirectImpact:      readImpactFields(x.numbers, types.PrefixIndirectImpact),
		Relaxed:             x.Relaxed,
	}
}

// decodeNumbers extracts every numeric member of a JSON object
func decodeNumbers(data []byte) (map[string]float64, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	numbers := make(map[string]float64, len(raw))
	for k, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			numbers[k] = f
		}
	}
	return numbers, nil
}

func readScenarioFields(numbers map[string]float64, prefix string) ScenarioValues {
	var v ScenarioValues
	for _, s := range types.Scenarios {
		v[s] = numbers[types.ScenarioField(prefix, s)]
	}
	return v
}

func readImpactFields(numbers map[string]float64, prefix string) ImpactMatrix {
	var m ImpactMatrix
	for _, s := range types.Scenarios {
		for _, k := range types.Indicators {
			m[s][k] = numbers[types.ImpactField(prefix, k, s)]
		}
	}
	return m
}
