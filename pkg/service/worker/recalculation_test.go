package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/repository/memory"
	"github.com/secmon-lab/bnra/pkg/service/worker"
	"github.com/secmon-lab/bnra/pkg/usecase"
)

type mockAggregator struct {
	mu     sync.Mutex
	called int
	err    error
}

func (m *mockAggregator) Run(ctx context.Context) (*usecase.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called++
	if m.err != nil {
		return nil, m.err
	}
	return &usecase.RunResult{Run: &model.Run{ID: types.NewRunID()}}, nil
}

func (m *mockAggregator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition was not met in time")
}

func TestRecalculationWorker_InitialRun(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo)

	storm := &model.RiskFile{ID: "storm", Title: "Storm", RiskType: types.RiskTypeStandard}
	storm.DirectProbability[types.ScenarioConsiderable] = "0.2"
	_, err := uc.Catalogue.Import(ctx, &model.Snapshot{RiskFiles: []*model.RiskFile{storm}}, false)
	gt.NoError(t, err).Required()

	w := worker.NewRecalculationWorker(uc.Aggregation, 10*time.Minute)
	gt.NoError(t, w.Start(ctx)).Required()
	defer w.Stop()

	waitFor(t, func() bool {
		_, err := repo.Run().Latest(ctx)
		return err == nil
	})

	calc, err := repo.Calculation().Get(ctx, "storm")
	gt.NoError(t, err).Required()
	gt.Value(t, calc.TotalProbability[types.ScenarioConsiderable]).Equal(0.2)
}

func TestRecalculationWorker_PeriodicRun(t *testing.T) {
	agg := &mockAggregator{}
	w := worker.NewRecalculationWorker(agg, 20*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	waitFor(t, func() bool { return agg.calls() >= 3 })
}

func TestRecalculationWorker_ContinuesAfterFailure(t *testing.T) {
	agg := &mockAggregator{err: goerr.New("catalogue unavailable")}
	w := worker.NewRecalculationWorker(agg, 20*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	waitFor(t, func() bool { return agg.calls() >= 2 })
}

func TestRecalculationWorker_SkipsWhenRunning(t *testing.T) {
	agg := &mockAggregator{err: goerr.Wrap(usecase.ErrAggregationRunning, "busy")}
	w := worker.NewRecalculationWorker(agg, 20*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	waitFor(t, func() bool { return agg.calls() >= 2 })
}

func TestRecalculationWorker_StopOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	agg := &mockAggregator{}
	w := worker.NewRecalculationWorker(agg, time.Hour)
	gt.NoError(t, w.Start(ctx)).Required()

	waitFor(t, func() bool { return agg.calls() >= 1 })
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

func TestRecalculationWorker_InvalidInterval(t *testing.T) {
	w := worker.NewRecalculationWorker(&mockAggregator{}, 0)
	gt.Error(t, w.Start(context.Background()))
}
