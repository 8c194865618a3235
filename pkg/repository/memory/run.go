package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

type runRepository struct {
	mu   sync.RWMutex
	runs map[types.RunID]*model.Run
}

func newRunRepository() *runRepository {
	return &runRepository{
		runs: make(map[types.RunID]*model.Run),
	}
}

func (r *runRepository) Put(ctx context.Context, run *model.Run) error {
	if err := run.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid run ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = run.Copy()
	return nil
}

func (r *runRepository) Get(ctx context.Context, id types.RunID) (*model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "run not found", goerr.V("run_id", id))
	}
	return run.Copy(), nil
}

func (r *runRepository) Latest(ctx context.Context) (*model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *model.Run
	for _, run := range r.runs {
		if latest == nil || run.StartedAt.After(latest.StartedAt) ||
			(run.StartedAt.Equal(latest.StartedAt) && run.ID > latest.ID) {
			latest = run
		}
	}
	if latest == nil {
		return nil, goerr.Wrap(ErrNotFound, "no run recorded")
	}
	return latest.Copy(), nil
}
