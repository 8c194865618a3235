package usecase

import (
	"time"

	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/service/export"
	"github.com/secmon-lab/bnra/pkg/service/slack"
)

const (
	// DefaultRankingTop is the number of risks listed in run summaries
	DefaultRankingTop = 10
)

type UseCases struct {
	repo         interfaces.Repository
	slackService slack.Service
	slackChannel string
	exporter     export.Service
	workers      int
	rankingField string
	rankingTop   int
	now          func() time.Time

	Aggregation *AggregationUseCase
	Ranking     *RankingUseCase
	Catalogue   *CatalogueUseCase
}

type Option func(*UseCases)

// WithSlack enables a run summary posted to the channel after each aggregation
func WithSlack(svc slack.Service, channelID string) Option {
	return func(uc *UseCases) {
		uc.slackService = svc
		uc.slackChannel = channelID
	}
}

// WithExporter enables export of each aggregation run
func WithExporter(exporter export.Service) Option {
	return func(uc *UseCases) {
		uc.exporter = exporter
	}
}

// WithWorkers sets how many independent parts of the catalogue are aggregated concurrently
func WithWorkers(n int) Option {
	return func(uc *UseCases) {
		uc.workers = n
	}
}

// WithRanking sets the field and the number of risks used for run summaries
func WithRanking(field string, top int) Option {
	return func(uc *UseCases) {
		if field != "" {
			uc.rankingField = field
		}
		if top > 0 {
			uc.rankingTop = top
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:         repo,
		workers:      1,
		rankingField: types.FieldRisk,
		rankingTop:   DefaultRankingTop,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Aggregation = &AggregationUseCase{uc: uc}
	uc.Ranking = &RankingUseCase{repo: repo}
	uc.Catalogue = &CatalogueUseCase{repo: repo}

	return uc
}
