package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Default returns the process wide logger
func Default() *slog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process wide logger. It is called once by the CLI
// after the logger flags are parsed.
func SetDefault(logger *slog.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

type ctxLoggerKey struct{}

// With returns a context carrying the logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger of the context, or the default logger
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}
