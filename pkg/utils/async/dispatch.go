package async

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/utils/errutil"
	"github.com/secmon-lab/bnra/pkg/utils/logging"
)

// Dispatch runs handler in a new goroutine. The context passed to handler keeps
// the values of ctx (logger, Sentry hub) but is not canceled with it, so the
// handler outlives the HTTP request that started it. Errors and panics are
// logged and reported.
func Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := context.WithoutCancel(ctx)
	bgCtx = logging.With(bgCtx, logging.From(ctx).With("task", name))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := goerr.New("panic in async handler", goerr.V("panic", fmt.Sprint(r)))
				_ = errutil.Handle(bgCtx, err, "async handler panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()
}
