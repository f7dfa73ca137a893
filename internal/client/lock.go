package client

import (
	"context"
	"time"

	"github.com/mind-engage/feedbackbank/internal/settings"
)

type LockGetter interface {
	GetLock(ctx context.Context) (settings.Lock, error)
}

// WatchLock polls the site lock every interval, starting immediately, and
// hands each result to fn. It blocks until ctx is done. A poll that
// completes after cancellation is dropped.
func WatchLock(ctx context.Context, api LockGetter, interval time.Duration, fn func(settings.Lock, error)) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		l, err := api.GetLock(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(l, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
