package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

type riskFileRepository struct {
	mu    sync.RWMutex
	files map[types.RiskFileID]*model.RiskFile
}

func newRiskFileRepository() *riskFileRepository {
	return &riskFileRepository{
		files: make(map[types.RiskFileID]*model.RiskFile),
	}
}

func (r *riskFileRepository) Put(ctx context.Context, file *model.RiskFile) (*model.RiskFile, error) {
	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk file")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := file.Copy()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if existing, ok := r.files[file.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}

	r.files[stored.ID] = stored
	return stored.Copy(), nil
}

func (r *riskFileRepository) Get(ctx context.Context, id types.RiskFileID) (*model.RiskFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, exists := r.files[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk file not found", goerr.V("id", id))
	}

	// Return a copy to prevent external modification
	return file.Copy(), nil
}

func (r *riskFileRepository) List(ctx context.Context) ([]*model.RiskFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files := make([]*model.RiskFile, 0, len(r.files))
	for _, file := range r.files {
		files = append(files, file.Copy())
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })

	return files, nil
}

func (r *riskFileRepository) Delete(ctx context.Context, id types.RiskFileID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[id]; !exists {
		return goerr.Wrap(ErrNotFound, "risk file not found", goerr.V("id", id))
	}

	delete(r.files, id)
	return nil
}
