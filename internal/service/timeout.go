package service

import (
	"context"
	"errors"
	"time"
)

// ErrTimedOut is returned by RunBounded when the wrapped operation missed
// its deadline and was abandoned.
var ErrTimedOut = errors.New("operation timed out")

// RunBounded executes op on its own goroutine with a context that expires
// after limit. If the deadline passes first the caller resumes immediately
// with ErrTimedOut and the operation is abandoned; whatever it produces
// afterwards (partial files, half-loaded models) must be treated as
// untrusted. Cancellation of the parent context is reported as the parent's
// error, never as ErrTimedOut, so callers can tell the two signals apart.
//
// The operation receives the bounded context; subprocess-backed operations
// started with exec.CommandContext are killed rather than merely abandoned.
func RunBounded[T any](ctx context.Context, limit time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	opCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := op(opCtx)
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			var zero T
			return zero, ErrTimedOut
		}
		return r.value, r.err
	case <-opCtx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrTimedOut
	}
}
