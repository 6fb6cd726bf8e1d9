package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOpts() Options {
	return Options{MaxRetries: 3, Delay: time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	}, fastOpts())

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection refused")
		}
		return "done", nil
	}, fastOpts())

	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	permanent := errors.New("constraint violation: duplicate key")
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	}, fastOpts())

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls, "permanent errors surface immediately")
}

func TestDo_ExhaustsBudgetAndReturnsLastError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("attempt %d: connection timeout", calls)
	}, fastOpts())

	// Initial attempt plus three retries.
	assert.Equal(t, 4, calls)
	assert.EqualError(t, err, "attempt 4: connection timeout")
}

func TestDo_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, func(ctx context.Context) (int, error) {
		return 0, errors.New("timeout")
	}, Options{MaxRetries: 3, Delay: time.Minute})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err       error
		transient bool
	}{
		{nil, false},
		{errors.New("connection refused"), true},
		{errors.New("dial tcp: i/o timeout"), true},
		{errors.New("host unreachable"), true},
		{errors.New("Can't reach database server"), true},
		{context.DeadlineExceeded, true},
		{errors.New("invalid input: missing field 'name'"), false},
		{errors.New("record not found"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.transient, IsTransient(tt.err), "error: %v", tt.err)
	}
}
