package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

func sampleCascade(cause, effect string) *model.Cascade {
	c := &model.Cascade{
		ID:       types.CascadeID(cause + "-" + effect),
		CauseID:  types.RiskFileID(cause),
		EffectID: types.RiskFileID(effect),
		Analyses: []model.CascadeAnalysis{
			{Expert: "alice@example.com"},
			{Expert: "bob@example.com"},
		},
	}
	c.Analyses[0].Matrix[types.ScenarioConsiderable][types.ScenarioMajor] = "0.2"
	c.Analyses[1].Matrix[types.ScenarioExtreme][types.ScenarioExtreme] = "n/a"
	return c
}

func runCascadeRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put stores every analysis", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c := sampleCascade("storm", "flood")
		c.Kind = types.CascadeCausal
		_, err := repo.Cascade().Put(ctx, c)
		gt.NoError(t, err).Required()

		got, err := repo.Cascade().Get(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.CauseID).Equal(types.RiskFileID("storm"))
		gt.Value(t, got.EffectID).Equal(types.RiskFileID("flood"))
		gt.Value(t, got.Kind).Equal(types.CascadeCausal)
		gt.Array(t, got.Analyses).Length(2).Required()
		gt.Value(t, got.Analyses[0].Expert).Equal("alice@example.com")
		gt.Value(t, got.Analyses[0].Matrix).Equal(c.Analyses[0].Matrix)
		gt.Value(t, got.Analyses[1].Matrix).Equal(c.Analyses[1].Matrix)
	})

	t.Run("ListByEffect returns only cascades into the risk file", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, c := range []*model.Cascade{
			sampleCascade("storm", "flood"),
			sampleCascade("dam", "flood"),
			sampleCascade("flood", "outage"),
		} {
			_, err := repo.Cascade().Put(ctx, c)
			gt.NoError(t, err).Required()
		}

		all, err := repo.Cascade().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)

		into, err := repo.Cascade().ListByEffect(ctx, "flood")
		gt.NoError(t, err).Required()
		gt.Array(t, into).Length(2).Required()
		gt.Value(t, into[0].ID).Equal(types.CascadeID("dam-flood"))
		gt.Value(t, into[1].ID).Equal(types.CascadeID("storm-flood"))
	})

	t.Run("Delete removes cascade", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c := sampleCascade("a", "b")
		_, err := repo.Cascade().Put(ctx, c)
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Cascade().Delete(ctx, c.ID)).Required()

		_, err = repo.Cascade().Get(ctx, c.ID)
		gt.Bool(t, isNotFound(err)).True()
		gt.Bool(t, isNotFound(repo.Cascade().Delete(ctx, c.ID))).True()
	})
}
