package worker

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/usecase"
	"github.com/secmon-lab/bnra/pkg/utils/errutil"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
)

// Aggregator runs an aggregation over the stored catalogue
type Aggregator interface {
	Run(ctx context.Context) (*usecase.RunResult, error)
}

// RecalculationWorker periodically recomputes the calculations from the stored
// catalogue.
//
// A single server instance is assumed. Overlapping runs within the instance are
// rejected by the aggregation use case and skipped here.
type RecalculationWorker struct {
	aggregator Aggregator
	interval   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewRecalculationWorker creates a worker that aggregates every interval
func NewRecalculationWorker(aggregator Aggregator, interval time.Duration) *RecalculationWorker {
	return &RecalculationWorker{
		aggregator: aggregator,
		interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background loop. The first run starts immediately and does
// not block the caller.
func (w *RecalculationWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("recalculation interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Recalculation worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for the running aggregation
func (w *RecalculationWorker) Stop() {
	logging.Default().Info("Recalculation worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Recalculation worker stopped")
}

func (w *RecalculationWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.recalculate(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.recalculate(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Recalculation worker context cancelled")
			return
		}
	}
}

func (w *RecalculationWorker) recalculate(ctx context.Context) {
	startTime := time.Now()

	result, err := w.aggregator.Run(ctx)
	if err != nil {
		if errors.Is(err, usecase.ErrAggregationRunning) {
			logging.Default().Info("Aggregation already running, skip this interval")
			return
		}
		_ = errutil.Handle(ctx, err, "periodic recalculation failed")
		return
	}

	logging.Default().Info("Recalculation completed",
		"run_id", result.Run.ID,
		"risk_files", result.Run.RiskFiles,
		"duration", time.Since(startTime).String())
}
