package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// RawMatrix holds the nine conditional probabilities of a cascade analysis as
// entered, indexed [cause scenario][effect scenario]. Empty means unset.
type RawMatrix [types.ScenarioCount][types.ScenarioCount]string

// CascadeAnalysis is one expert's judgment of a cascade
type CascadeAnalysis struct {
	Expert string
	Matrix RawMatrix
}

// Cascade is a directed relation between two risk files: the occurrence of the
// cause at some scenario can trigger the effect at some scenario.
type Cascade struct {
	ID       types.CascadeID
	CauseID  types.RiskFileID
	EffectID types.RiskFileID
	// Kind may be empty, it is then derived from the risk type of the cause
	Kind     types.CascadeKind
	Analyses []CascadeAnalysis

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the identifying fields of the cascade. References to risk
// files are checked by the aggregation against the whole catalogue.
func (c *Cascade) Validate() error {
	if err := c.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid cascade ID")
	}
	if err := c.CauseID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid cause ID", goerr.V("cascade_id", c.ID))
	}
	if err := c.EffectID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid effect ID", goerr.V("cascade_id", c.ID))
	}
	if c.Kind != "" {
		if err := c.Kind.Validate(); err != nil {
			return goerr.Wrap(err, "invalid cascade kind", goerr.V("cascade_id", c.ID))
		}
	}
	return nil
}

// Copy returns a deep copy of the cascade
func (c *Cascade) Copy() *Cascade {
	cp := *c
	cp.Analyses = append([]CascadeAnalysis(nil), c.Analyses...)
	return &cp
}

// MatrixFields returns the raw entries of the matrix keyed by "c2c" ... "e2e".
// Unset entries are omitted.
func (m RawMatrix) MatrixFields() map[string]string {
	fields := make(map[string]string)
	for _, from := range types.Scenarios {
		for _, to := range types.Scenarios {
			if v := m[from][to]; v != "" {
				fields[types.MatrixField(from, to)] = v
			}
		}
	}
	return fields
}

// RawMatrixFromFields builds a RawMatrix from entries keyed by "c2c" ... "e2e".
// Unknown keys are returned.
func RawMatrixFromFields(fields map[string]string) (RawMatrix, []string) {
	var m RawMatrix
	var unknown []string
	for key, v := range fields {
		found := false
		for _, from := range types.Scenarios {
			for _, to := range types.Scenarios {
				if key == types.MatrixField(from, to) {
					m[from][to] = v
					found = true
				}
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	return m, unknown
}
