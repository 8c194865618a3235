package errutil

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
)

// Handle logs the error with a message and reports it to Sentry when a Sentry
// client is initialized. The error is returned as is.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	// Extract goerr values for structured logging
	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	report(ctx, err, msg)
	return err
}

// HandleHTTP logs the error and writes an appropriate HTTP error response.
// Only 5xx errors are reported to Sentry.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	if statusCode >= http.StatusInternalServerError {
		report(ctx, err, "HTTP error")
		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	http.Error(w, err.Error(), statusCode)
}

func report(ctx context.Context, err error, msg string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		var ge *goerr.Error
		if errors.As(err, &ge) {
			for k, v := range ge.Values() {
				scope.SetExtra(k, v)
			}
		}
		hub.CaptureException(err)
	})
}
