package util

import (
	"context"
	"time"
)

// Retry runs fn until it succeeds or attempts are exhausted, doubling the
// pause between tries starting from base. Cancellation is checked while
// pausing; fn itself is expected to honor the same context. The error of
// the final attempt is returned.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	pause := base
	for i := 1; ; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if i >= attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
		pause *= 2
	}
}
