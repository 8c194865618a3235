package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/repository/firestore"
	"github.com/secmon-lab/bnra/pkg/repository/memory"
)

func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}

func sampleRiskFile(id string) *model.RiskFile {
	f := &model.RiskFile{
		ID:           types.RiskFileID(id),
		HazardID:     "H" + id,
		Title:        "Risk " + id,
		RiskType:     types.RiskTypeStandard,
		RiskCategory: "Cyber",
		Qualitative:  map[string]string{"definition": "A " + id + " happens"},
	}
	f.DirectProbability[types.ScenarioConsiderable] = "0.1"
	f.DirectProbability[types.ScenarioExtreme] = "0,01"
	f.DirectImpact[types.ScenarioMajor][types.IndicatorFa] = "1200"
	return f
}

func runRiskFileRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put stores raw fields as entered", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		file := sampleRiskFile("flood")
		created, err := repo.RiskFile().Put(ctx, file)
		gt.NoError(t, err).Required()
		gt.Bool(t, created.CreatedAt.IsZero()).False()

		got, err := repo.RiskFile().Get(ctx, "flood")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal(file.Title)
		gt.Value(t, got.RiskType).Equal(types.RiskTypeStandard)
		gt.Value(t, got.DirectProbability).Equal(file.DirectProbability)
		gt.Value(t, got.DirectImpact).Equal(file.DirectImpact)
		gt.Value(t, got.Qualitative["definition"]).Equal("A flood happens")
	})

	t.Run("Put keeps CreatedAt on update", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.RiskFile().Put(ctx, sampleRiskFile("storm"))
		gt.NoError(t, err).Required()

		updated := sampleRiskFile("storm")
		updated.Title = "Severe storm"
		second, err := repo.RiskFile().Put(ctx, updated)
		gt.NoError(t, err).Required()
		gt.Value(t, second.CreatedAt.Unix()).Equal(first.CreatedAt.Unix())

		got, err := repo.RiskFile().Get(ctx, "storm")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Severe storm")
	})

	t.Run("Put rejects invalid risk file", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.RiskFile().Put(context.Background(), &model.RiskFile{ID: "x"})
		gt.Value(t, err).NotNil()
	})

	t.Run("List returns risk files ordered by ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, id := range []string{"c", "a", "b"} {
			_, err := repo.RiskFile().Put(ctx, sampleRiskFile(id))
			gt.NoError(t, err).Required()
		}

		files, err := repo.RiskFile().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, files).Length(3).Required()
		gt.Value(t, files[0].ID).Equal(types.RiskFileID("a"))
		gt.Value(t, files[2].ID).Equal(types.RiskFileID("c"))
	})

	t.Run("Get and Delete return not found for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.RiskFile().Get(ctx, "unknown")
		gt.Bool(t, isNotFound(err)).True()

		err = repo.RiskFile().Delete(ctx, "unknown")
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("Delete removes risk file", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.RiskFile().Put(ctx, sampleRiskFile("quake"))
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.RiskFile().Delete(ctx, "quake")).Required()

		_, err = repo.RiskFile().Get(ctx, "quake")
		gt.Bool(t, isNotFound(err)).True()
	})
}
