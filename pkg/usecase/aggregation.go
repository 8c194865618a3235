package usecase

import (
	"context"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/service/cascade"
	"github.com/secmon-lab/bnra/pkg/service/export"
	"github.com/secmon-lab/bnra/pkg/service/slack"
	"github.com/secmon-lab/bnra/pkg/utils/errutil"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
)

type AggregationUseCase struct {
	uc      *UseCases
	running atomic.Bool
}

// RunResult is the outcome of one aggregation run
type RunResult struct {
	Run    *model.Run
	Result *cascade.Result
	// Top holds the highest ranked calculations by the configured ranking field
	Top []*model.RiskCalculation
}

// Run aggregates the catalogue stored in the repository
func (x *AggregationUseCase) Run(ctx context.Context) (*RunResult, error) {
	snapshot, err := x.uc.Catalogue.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return x.RunSnapshot(ctx, snapshot)
}

// RunSnapshot aggregates the given catalogue, replaces the stored calculations
// and records the run. Export and notification failures are reported but do
// not fail the run since the calculations are already stored.
func (x *AggregationUseCase) RunSnapshot(ctx context.Context, snapshot *model.Snapshot) (*RunResult, error) {
	if !x.running.CompareAndSwap(false, true) {
		return nil, goerr.Wrap(ErrAggregationRunning, "aggregation rejected")
	}
	defer x.running.Store(false)

	uc := x.uc
	run := &model.Run{
		ID:        types.NewRunID(),
		StartedAt: uc.now().UTC(),
		RiskFiles: len(snapshot.RiskFiles),
		Cascades:  len(snapshot.Cascades),
	}
	logger := logging.From(ctx).With(RunIDKey, run.ID)
	logger.Info("Starting aggregation", "risk_files", run.RiskFiles, "cascades", run.Cascades, "workers", uc.workers)

	result, err := cascade.Aggregate(snapshot, cascade.WithWorkers(uc.workers))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate catalogue", goerr.V(RunIDKey, run.ID))
	}

	for _, d := range result.Diagnostics {
		logger.Debug("Input defaulted",
			"risk_id", d.RiskID,
			"cascade_id", d.CascadeID,
			"field", d.Field,
			"raw", d.Raw,
			"reason", d.Reason,
		)
	}
	for _, b := range result.CycleBreaks {
		logger.Warn("Cycle broken", "risk_id", b.RiskID, "unresolved_causes", b.UnresolvedCauses)
	}

	calcs := result.List()
	top, err := Rank(calcs, uc.rankingField, uc.rankingTop)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to rank calculations", goerr.V(RunIDKey, run.ID))
	}

	if err := uc.repo.Calculation().ReplaceAll(ctx, run.ID, calcs); err != nil {
		return nil, goerr.Wrap(err, "failed to store calculations", goerr.V(RunIDKey, run.ID))
	}

	run.CycleBreaks = len(result.CycleBreaks)
	run.Diagnostics = len(result.Diagnostics)
	run.TopRisks = make([]types.RiskFileID, len(top))
	for i, calc := range top {
		run.TopRisks[i] = calc.RiskID
	}
	run.FinishedAt = uc.now().UTC()

	if uc.exporter != nil {
		url, err := uc.exporter.Export(ctx, &export.Report{
			Run:          run,
			Calculations: calcs,
			CycleBreaks:  result.CycleBreaks,
			Diagnostics:  result.Diagnostics,
		})
		if err != nil {
			_ = errutil.Handle(ctx, err, "failed to export aggregation run")
		} else {
			run.ExportURL = url
		}
	}

	if err := uc.repo.Run().Put(ctx, run); err != nil {
		return nil, goerr.Wrap(err, "failed to store run", goerr.V(RunIDKey, run.ID))
	}

	if uc.slackService != nil && uc.slackChannel != "" {
		blocks, text := slack.BuildRunSummary(run, top)
		if _, err := uc.slackService.PostMessage(ctx, uc.slackChannel, blocks, text); err != nil {
			_ = errutil.Handle(ctx, err, "failed to notify aggregation run")
		}
	}

	logger.Info("Aggregation finished",
		"cycle_breaks", run.CycleBreaks,
		"diagnostics", run.Diagnostics,
		"duration", run.FinishedAt.Sub(run.StartedAt),
		"export_url", run.ExportURL,
	)

	return &RunResult{Run: run, Result: result, Top: top}, nil
}

// Running reports whether an aggregation is in progress
func (x *AggregationUseCase) Running() bool {
	return x.running.Load()
}

// LatestRun returns the last recorded run
func (x *AggregationUseCase) LatestRun(ctx context.Context) (*model.Run, error) {
	run, err := x.uc.repo.Run().Latest(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest run")
	}
	return run, nil
}
