package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/interfaces"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/usecase"
	"github.com/secmon-lab/bnra/pkg/utils/async"
	"github.com/secmon-lab/bnra/pkg/utils/errutil"
)

var errInvalidQuery = goerr.New("invalid query parameter")

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, errInvalidQuery), errors.Is(err, usecase.ErrUnknownRankingField):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNoCalculation), errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrAggregationRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type rankingResponse struct {
	Field        string                   `json:"field"`
	Calculations []*model.RiskCalculation `json:"calculations"`
}

func (s *Server) rankingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	field := r.URL.Query().Get("field")
	if field == "" {
		field = types.FieldRisk
	}

	limit := s.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(errInvalidQuery, "limit must be a non-negative integer", goerr.V("limit", v)), http.StatusBadRequest)
			return
		}
		limit = n
	}

	calcs, err := s.ranking.List(ctx, field, limit)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusOf(err))
		return
	}
	if calcs == nil {
		calcs = []*model.RiskCalculation{}
	}

	writeJSON(ctx, w, http.StatusOK, rankingResponse{Field: field, Calculations: calcs})
}

type categoryShare struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Share float64 `json:"share"`
}

type riskResponse struct {
	Calculation  *model.RiskCalculation `json:"calculation"`
	Distribution []categoryShare        `json:"distribution"`
}

// categoryDistribution splits the total impact of a risk into damage categories
func categoryDistribution(calc *model.RiskCalculation) []categoryShare {
	total := calc.TotalImpact.Total()
	shares := make([]categoryShare, 0, len(types.Categories))
	for _, c := range types.Categories {
		v := calc.TotalImpact.Category(c)
		share := 0.0
		if total > 0 {
			share = v / total
		}
		shares = append(shares, categoryShare{Code: c.Code(), Name: c.Name(), Value: v, Share: share})
	}
	return shares
}

func (s *Server) riskHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := types.RiskFileID(chi.URLParam(r, "id"))

	calc, err := s.ranking.Get(ctx, id)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusOf(err))
		return
	}

	writeJSON(ctx, w, http.StatusOK, riskResponse{
		Calculation:  calc,
		Distribution: categoryDistribution(calc),
	})
}

func (s *Server) aggregateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.aggregation.Running() {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(usecase.ErrAggregationRunning, "aggregation requested while running"), http.StatusConflict)
		return
	}

	async.Dispatch(ctx, "aggregate", func(ctx context.Context) error {
		_, err := s.aggregation.Run(ctx)
		return err
	})

	writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type runResponse struct {
	ID          types.RunID        `json:"id"`
	StartedAt   time.Time          `json:"startedAt"`
	FinishedAt  time.Time          `json:"finishedAt"`
	RiskFiles   int                `json:"riskFiles"`
	Cascades    int                `json:"cascades"`
	CycleBreaks int                `json:"cycleBreaks"`
	Diagnostics int                `json:"diagnostics"`
	ExportURL   string             `json:"exportUrl,omitempty"`
	TopRisks    []types.RiskFileID `json:"topRisks"`
}

func (s *Server) latestRunHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, err := s.aggregation.LatestRun(ctx)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusOf(err))
		return
	}

	writeJSON(ctx, w, http.StatusOK, runResponse{
		ID:          run.ID,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		RiskFiles:   run.RiskFiles,
		Cascades:    run.Cascades,
		CycleBreaks: run.CycleBreaks,
		Diagnostics: run.Diagnostics,
		ExportURL:   run.ExportURL,
		TopRisks:    run.TopRisks,
	})
}
