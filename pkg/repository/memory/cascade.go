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

type cascadeRepository struct {
	mu       sync.RWMutex
	cascades map[types.CascadeID]*model.Cascade
}

func newCascadeRepository() *cascadeRepository {
	return &cascadeRepository{
		cascades: make(map[types.CascadeID]*model.Cascade),
	}
}

func (r *cascadeRepository) Put(ctx context.Context, c *model.Cascade) (*model.Cascade, error) {
	if err := c.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid cascade")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := c.Copy()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if existing, ok := r.cascades[c.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}

	r.cascades[stored.ID] = stored
	return stored.Copy(), nil
}

func (r *cascadeRepository) Get(ctx context.Context, id types.CascadeID) (*model.Cascade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cascades[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "cascade not found", goerr.V("id", id))
	}
	return c.Copy(), nil
}

func (r *cascadeRepository) List(ctx context.Context) ([]*model.Cascade, error) {
	return r.filter(func(*model.Cascade) bool { return true }), nil
}

func (r *cascadeRepository) ListByEffect(ctx context.Context, effectID types.RiskFileID) ([]*model.Cascade, error) {
	return r.filter(func(c *model.Cascade) bool { return c.EffectID == effectID }), nil
}

func (r *cascadeRepository) filter(match func(*model.Cascade) bool) []*model.Cascade {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Cascade, 0, len(r.cascades))
	for _, c := range r.cascades {
		if match(c) {
			result = append(result, c.Copy())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r *cascadeRepository) Delete(ctx context.Context, id types.CascadeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cascades[id]; !exists {
		return goerr.Wrap(ErrNotFound, "cascade not found", goerr.V("id", id))
	}

	delete(r.cascades, id)
	return nil
}
