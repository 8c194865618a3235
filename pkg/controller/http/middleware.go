package http

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
)

// requestLogger binds a logger tagged with the request ID to the request context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = logging.With(ctx, logging.From(ctx).With("request_id", id))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sentryMiddleware clones the current hub per request so that errors reported
// while handling it carry the request data. Panics are re-raised for the
// Recoverer middleware.
func sentryMiddleware(next http.Handler) http.Handler {
	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(next)
}
