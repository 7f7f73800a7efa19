package watchhooks

import (
	"context"
	"errors"
	"time"

	"github.com/example/lessontrack/internal/progress"
)

const (
	defaultRetryAttempts = 20
	defaultRetryInterval = 100 * time.Millisecond
)

// RetryNotReady runs fn, polling while it reports the transient not-ready
// condition. After the attempt budget is spent it gives up silently: a
// not-ready dependency is not a user-visible failure. Any other error
// stops the poll immediately and is returned.
func RetryNotReady(ctx context.Context, attempts int, interval time.Duration, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	if interval <= 0 {
		interval = defaultRetryInterval
	}

	for i := 0; i < attempts; i++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, progress.ErrNotReady) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil
}
