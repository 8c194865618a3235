package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

type calculationRepository struct {
	mu    sync.RWMutex
	runID types.RunID
	calcs map[types.RiskFileID]*model.RiskCalculation
}

func newCalculationRepository() *calculationRepository {
	return &calculationRepository{
		calcs: make(map[types.RiskFileID]*model.RiskCalculation),
	}
}

func (r *calculationRepository) ReplaceAll(ctx context.Context, runID types.RunID, calcs []*model.RiskCalculation) error {
	replaced := make(map[types.RiskFileID]*model.RiskCalculation, len(calcs))
	for _, calc := range calcs {
		replaced[calc.RiskID] = calc.Copy()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runID = runID
	r.calcs = replaced
	return nil
}

func (r *calculationRepository) Get(ctx context.Context, id types.RiskFileID) (*model.RiskCalculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, exists := r.calcs[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "calculation not found", goerr.V("risk_id", id))
	}
	return calc.Copy(), nil
}

func (r *calculationRepository) List(ctx context.Context) ([]*model.RiskCalculation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calcs := make([]*model.RiskCalculation, 0, len(r.calcs))
	for _, calc := range r.calcs {
		calcs = append(calcs, calc.Copy())
	}
	sort.Slice(calcs, func(i, j int) bool { return calcs[i].RiskID < calcs[j].RiskID })
	return calcs, nil
}
