package util

import (
	"context"
	"time"
)

// CallWithTimeout runs fn on its own goroutine and gives up waiting after timeout.
// Reads and writes of sysfs files cannot be cancelled, so a stuck call is abandoned
// instead of blocking the caller.
func CallWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
