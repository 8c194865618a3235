package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

type RankingUseCase struct {
	repo interfaces.Repository
}

// List returns the stored calculations ordered by a calculated field,
// highest first. An empty field ranks by r. limit <= 0 returns all.
func (uc *RankingUseCase) List(ctx context.Context, field string, limit int) ([]*model.RiskCalculation, error) {
	calcs, err := uc.repo.Calculation().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list calculations")
	}
	return Rank(calcs, field, limit)
}

// Get returns the stored calculation of a risk file
func (uc *RankingUseCase) Get(ctx context.Context, id types.RiskFileID) (*model.RiskCalculation, error) {
	calc, err := uc.repo.Calculation().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNoCalculation, "risk file is not aggregated", goerr.V(RiskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get calculation", goerr.V(RiskIDKey, id))
	}
	return calc, nil
}

// Rank orders calculations by a calculated field, highest first. Ties are
// ordered by title, then by risk file ID. The input slice is not modified.
func Rank(calcs []*model.RiskCalculation, field string, limit int) ([]*model.RiskCalculation, error) {
	if field == "" {
		field = types.FieldRisk
	}
	if !IsRankingField(field) {
		return nil, goerr.Wrap(ErrUnknownRankingField, "cannot rank by field", goerr.V(FieldKey, field))
	}

	type entry struct {
		calc  *model.RiskCalculation
		value float64
	}
	entries := make([]entry, 0, len(calcs))
	for _, calc := range calcs {
		v, _ := calc.Field(field)
		entries = append(entries, entry{calc: calc, value: v})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.value != b.value {
			return a.value > b.value
		}
		if a.calc.Title != b.calc.Title {
			return a.calc.Title < b.calc.Title
		}
		return a.calc.RiskID < b.calc.RiskID
	})

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	ranked := make([]*model.RiskCalculation, len(entries))
	for i, e := range entries {
		ranked[i] = e.calc
	}
	return ranked, nil
}

// IsRankingField reports whether the name is a calculated field
func IsRankingField(field string) bool {
	_, ok := (&model.RiskCalculation{}).Field(field)
	return ok
}
