package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// RiskFile is a hazard of the catalogue as stored by the data entry front end.
// Quantitative fields are kept as the raw text the experts entered; an empty
// string means the field was never filled in.
type RiskFile struct {
	ID           types.RiskFileID
	HazardID     string
	Title        string
	RiskType     types.RiskType
	RiskCategory string

	// DirectProbability holds dp_quanti_{c,m,e}
	DirectProbability [types.ScenarioCount]string
	// DirectImpact holds di_quanti_{indicator}_{scenario}
	DirectImpact [types.ScenarioCount][types.IndicatorCount]string

	// Qualitative holds opaque natural-language payloads (definition,
	// historical events, scenario descriptions ...). They are never read by
	// the aggregation.
	Qualitative map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the identifying fields of the risk file. Quantitative fields
// are not validated here, incomplete expert input is expected.
func (r *RiskFile) Validate() error {
	if err := r.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid risk file ID")
	}
	if r.Title == "" {
		return goerr.New("risk file title is required", goerr.V("id", r.ID))
	}
	if err := r.RiskType.Validate(); err != nil {
		return goerr.Wrap(err, "invalid risk type", goerr.V("id", r.ID))
	}
	return nil
}

// Copy returns a deep copy of the risk file
func (r *RiskFile) Copy() *RiskFile {
	c := *r
	if r.Qualitative != nil {
		c.Qualitative = make(map[string]string, len(r.Qualitative))
		for k, v := range r.Qualitative {
			c.Qualitative[k] = v
		}
	}
	return &c
}

// QuantitativeFields returns the raw quantitative fields keyed by their
// public names ("dp_c", "di_Ha_c" ...). Unset fields are omitted.
func (r *RiskFile) QuantitativeFields() map[string]string {
	fields := make(map[string]string)
	for _, s := range types.Scenarios {
		if v := r.DirectProbability[s]; v != "" {
			fields[types.ScenarioField(types.PrefixDirectProbability, s)] = v
		}
		for _, k := range types.Indicators {
			if v := r.DirectImpact[s][k]; v != "" {
				fields[types.ImpactField(types.PrefixDirectImpact, k, s)] = v
			}
		}
	}
	return fields
}

// SetQuantitativeFields fills the raw quantitative fields from a map keyed by
// public names. Unknown keys are returned so callers can report them.
func (r *RiskFile) SetQuantitativeFields(fields map[string]string) (unknown []string) {
	index := quantitativeFieldIndex()
	for key, v := range fields {
		pos, ok := index[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if pos.probability {
			r.DirectProbability[pos.scenario] = v
		} else {
			r.DirectImpact[pos.scenario][pos.indicator] = v
		}
	}
	return unknown
}

type fieldPosition struct {
	probability bool
	scenario    types.Scenario
	indicator   types.DamageIndicator
}

func quantitativeFieldIndex() map[string]fieldPosition {
	index := make(map[string]fieldPosition, types.ScenarioCount*(types.IndicatorCount+1))
	for _, s := range types.Scenarios {
		index[types.ScenarioField(types.PrefixDirectProbability, s)] = fieldPosition{probability: true, scenario: s}
		for _, k := range types.Indicators {
			index[types.ImpactField(types.PrefixDirectImpact, k, s)] = fieldPosition{scenario: s, indicator: k}
		}
	}
	return index
}
