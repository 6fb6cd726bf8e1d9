// Package retry provides a bounded retry wrapper for operations against
// flaky external dependencies. Only transient failures are retried;
// validation and other permanent errors surface immediately.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultDelay      = 2 * time.Second
)

type Options struct {
	MaxRetries int
	Delay      time.Duration // fixed delay between attempts, not exponential
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Delay == 0 {
		o.Delay = DefaultDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Do runs op, retrying transient failures up to opts.MaxRetries times
// with a fixed delay between attempts. After the budget is exhausted the
// last error is returned verbatim. Non-transient errors are returned
// immediately without retry.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	remaining := opts.MaxRetries
	for {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if remaining == 0 || !IsTransient(err) {
			return zero, err
		}

		opts.Logger.Warn("operation failed, retrying",
			"delay", opts.Delay,
			"remaining", remaining,
			"error", err)
		remaining--

		select {
		case <-time.After(opts.Delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"can't reach",
	"connection",
	"timeout",
	"timed out",
	"unreachable",
	"temporarily unavailable",
}

// IsTransient classifies an error as a transient dependency failure,
// eligible for retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
