package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/bnra/pkg/utils/logging"
)

// Close closes an io.Closer and logs the error. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer, what string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.String("target", what), slog.Any("error", err))
	}
}
