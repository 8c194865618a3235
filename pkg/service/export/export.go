package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/service/cascade"
)

// Service writes the result of an aggregation run somewhere outside the
// repository and returns where it was written
type Service interface {
	Export(ctx context.Context, report *Report) (string, error)
}

// Report is the exported document of one run
type Report struct {
	Run          *model.Run
	Calculations []*model.RiskCalculation
	CycleBreaks  []cascade.CycleBreak
	Diagnostics  []cascade.Diagnostic
}

type reportJSON struct {
	Run          runJSON                  `json:"run"`
	Calculations []*model.RiskCalculation `json:"calculations"`
	CycleBreaks  []cycleBreakJSON         `json:"cycleBreaks"`
	Diagnostics  []diagnosticJSON         `json:"diagnostics"`
}

type runJSON struct {
	ID         types.RunID        `json:"id"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
	RiskFiles  int                `json:"riskFiles"`
	Cascades   int                `json:"cascades"`
	TopRisks   []types.RiskFileID `json:"topRisks"`
}

type cycleBreakJSON struct {
	RiskID           types.RiskFileID   `json:"riskId"`
	UnresolvedCauses []types.RiskFileID `json:"unresolvedCauses"`
}

type diagnosticJSON struct {
	RiskID    types.RiskFileID `json:"riskId,omitempty"`
	CascadeID types.CascadeID  `json:"cascadeId,omitempty"`
	Field     string           `json:"field,omitempty"`
	Raw       string           `json:"raw,omitempty"`
	Reason    cascade.Reason   `json:"reason"`
}

// Encode writes the report as indented JSON
func Encode(w io.Writer, report *Report) error {
	if report.Run == nil {
		return goerr.New("report has no run")
	}

	out := reportJSON{
		Run: runJSON{
			ID:         report.Run.ID,
			StartedAt:  report.Run.StartedAt,
			FinishedAt: report.Run.FinishedAt,
			RiskFiles:  report.Run.RiskFiles,
			Cascades:   report.Run.Cascades,
			TopRisks:   report.Run.TopRisks,
		},
		Calculations: report.Calculations,
		CycleBreaks:  make([]cycleBreakJSON, 0, len(report.CycleBreaks)),
		Diagnostics:  make([]diagnosticJSON, 0, len(report.Diagnostics)),
	}
	if out.Calculations == nil {
		out.Calculations = []*model.RiskCalculation{}
	}
	for _, b := range report.CycleBreaks {
		out.CycleBreaks = append(out.CycleBreaks, cycleBreakJSON(b))
	}
	for _, d := range report.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticJSON(d))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return goerr.Wrap(err, "failed to encode report", goerr.V("run_id", report.Run.ID))
	}
	return nil
}
