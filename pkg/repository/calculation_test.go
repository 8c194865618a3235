package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

func sampleCalculation(id string, r float64) *model.RiskCalculation {
	calc := &model.RiskCalculation{
		RiskID:            types.RiskFileID(id),
		Title:             "Risk " + id,
		RiskType:          types.RiskTypeStandard,
		DirectProbability: model.ScenarioValues{0.1, 0.05, 0.01},
		Risk:              r,
	}
	calc.TotalProbability = calc.DirectProbability
	calc.RelativeProbability = calc.TotalProbability.Normalize()
	calc.DirectImpact[types.ScenarioMajor][types.IndicatorHa] = 4
	calc.TotalImpact = calc.DirectImpact
	return calc
}

func runCalculationRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("ReplaceAll stores calculations", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		calc := sampleCalculation("flood", 0.2)
		gt.NoError(t, repo.Calculation().ReplaceAll(ctx, types.NewRunID(), []*model.RiskCalculation{calc})).Required()

		got, err := repo.Calculation().Get(ctx, "flood")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Risk flood")
		gt.Value(t, got.Risk).Equal(0.2)
		gt.Value(t, got.TotalImpact).Equal(calc.TotalImpact)
		gt.Value(t, got.Fields()).Equal(calc.Fields())
	})

	t.Run("ReplaceAll drops calculations of the previous run", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Calculation().ReplaceAll(ctx, types.NewRunID(), []*model.RiskCalculation{
			sampleCalculation("a", 1),
			sampleCalculation("b", 2),
		})).Required()
		time.Sleep(time.Millisecond)
		gt.NoError(t, repo.Calculation().ReplaceAll(ctx, types.NewRunID(), []*model.RiskCalculation{
			sampleCalculation("b", 3),
			sampleCalculation("c", 4),
		})).Required()

		calcs, err := repo.Calculation().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, calcs).Length(2).Required()
		gt.Value(t, calcs[0].RiskID).Equal(types.RiskFileID("b"))
		gt.Value(t, calcs[0].Risk).Equal(3.0)
		gt.Value(t, calcs[1].RiskID).Equal(types.RiskFileID("c"))

		_, err = repo.Calculation().Get(ctx, "a")
		gt.Bool(t, isNotFound(err)).True()
	})
}

func runRunRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Latest returns the run started last", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Run().Latest(ctx)
		gt.Bool(t, isNotFound(err)).True()

		now := time.Now().UTC().Truncate(time.Millisecond)
		older := &model.Run{ID: types.NewRunID(), StartedAt: now.Add(-time.Hour), RiskFiles: 3}
		newer := &model.Run{
			ID:         types.NewRunID(),
			StartedAt:  now,
			FinishedAt: now.Add(time.Second),
			RiskFiles:  5,
			Cascades:   7,
			TopRisks:   []types.RiskFileID{"flood", "storm"},
		}
		gt.NoError(t, repo.Run().Put(ctx, newer)).Required()
		gt.NoError(t, repo.Run().Put(ctx, older)).Required()

		latest, err := repo.Run().Latest(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, latest.ID).Equal(newer.ID)
		gt.Value(t, latest.Cascades).Equal(7)
		gt.Value(t, latest.TopRisks).Equal(newer.TopRisks)

		got, err := repo.Run().Get(ctx, older.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.RiskFiles).Equal(3)
	})

	t.Run("Put rejects invalid run ID", func(t *testing.T) {
		repo := newRepo(t)
		gt.Value(t, repo.Run().Put(context.Background(), &model.Run{ID: "not-a-uuid"})).NotNil()
	})
}
