package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
	"github.com/secmon-lab/bnra/pkg/usecase"
	"github.com/secmon-lab/bnra/pkg/utils/errutil"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
)

// RankingUseCase reads stored calculations
type RankingUseCase interface {
	List(ctx context.Context, field string, limit int) ([]*model.RiskCalculation, error)
	Get(ctx context.Context, id types.RiskFileID) (*model.RiskCalculation, error)
}

// AggregationUseCase starts and inspects aggregation runs
type AggregationUseCase interface {
	Run(ctx context.Context) (*usecase.RunResult, error)
	Running() bool
	LatestRun(ctx context.Context) (*model.Run, error)
}

type Server struct {
	router       *chi.Mux
	ranking      RankingUseCase
	aggregation  AggregationUseCase
	defaultLimit int
	enableSentry bool
}

type Options func(*Server)

// WithDefaultLimit sets the ranking size returned when no limit is requested
func WithDefaultLimit(limit int) Options {
	return func(s *Server) {
		s.defaultLimit = limit
	}
}

// WithSentry attaches a Sentry hub to every request
func WithSentry(enabled bool) Options {
	return func(s *Server) {
		s.enableSentry = enabled
	}
}

func New(ranking RankingUseCase, aggregation AggregationUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		ranking:      ranking,
		aggregation:  aggregation,
		defaultLimit: usecase.DefaultRankingTop,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	if s.enableSentry {
		r.Use(sentryMiddleware)
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ranking", s.rankingHandler)
		r.Get("/risks/{id}", s.riskHandler)
		r.Post("/aggregate", s.aggregateHandler)
		r.Get("/runs/latest", s.latestRunHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as the response body
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
