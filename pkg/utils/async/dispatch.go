package async

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/utils/errutil"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
)

// Dispatch runs handler in a new goroutine detached from the cancellation of ctx. The
// logger of ctx is carried over with a "task" attribute. Errors and panics are reported
// through errutil. The returned channel is closed when handler has finished.
func Dispatch(ctx context.Context, task string, handler func(ctx context.Context) error) <-chan struct{} {
	logger := logging.From(ctx).With(slog.String("task", task))
	bgCtx := logging.With(context.WithoutCancel(ctx), logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				_ = errutil.Handle(bgCtx, goerr.New("panic in async task",
					goerr.V("task", task),
					goerr.V("panic", fmt.Sprint(r))), "Async task panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "Async task failed")
		}
	}()

	return done
}
