package model

import (
	"time"

	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// Run records one aggregation run
type Run struct {
	ID          types.RunID
	StartedAt   time.Time
	FinishedAt  time.Time
	RiskFiles   int
	Cascades    int
	CycleBreaks int
	Diagnostics int
	ExportURL   string
	TopRisks    []types.RiskFileID
}

// Copy returns a deep copy of the run
func (r *Run) Copy() *Run {
	cp := *r
	cp.TopRisks = append([]types.RiskFileID(nil), r.TopRisks...)
	return &cp
}
