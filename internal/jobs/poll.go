package jobs

import (
	"context"
	"time"
)

const pollAttempts = 3

var pollInitialDelay = time.Second

// Poll reads a job's state, retrying transient read failures with
// exponential backoff: 1s, then doubling, for at most 3 attempts. This
// covers transport failures only; a job observed in FAILED state is a
// valid answer and is returned without retry.
func Poll[T any](ctx context.Context, read func(context.Context) (T, error)) (T, error) {
	var zero T
	delay := pollInitialDelay

	var lastErr error
	for attempt := 1; attempt <= pollAttempts; attempt++ {
		v, err := read(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == pollAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		delay *= 2
	}
	return zero, lastErr
}
