package rpc

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/polyscan/ctfindex/internal/common"
	"github.com/polyscan/ctfindex/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNetError implements net.Error for testing
type mockNetError struct {
	msg       string
	timeout   bool
	temporary bool
}

func (e *mockNetError) Error() string   { return e.msg }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return e.temporary }

func testRetryConfig(maxAttempts int) *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       maxAttempts,
		InitialBackoff:    common.NewDuration(time.Millisecond),
		MaxBackoff:        common.NewDuration(5 * time.Millisecond),
		BackoffMultiplier: 2.0,
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"network timeout", &mockNetError{msg: "network timeout", timeout: true}, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"broken pipe", syscall.EPIPE, true},
		{"timeout string", errors.New("operation timeout"), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"rate limit 429", errors.New("HTTP 429"), true},
		{"too many requests", errors.New("too many requests"), true},
		{"bad gateway", errors.New("502 bad gateway"), true},
		{"service unavailable", errors.New("503 service unavailable"), true},
		{"validation error", errors.New("invalid input"), false},
		{"generic error", errors.New("something broke"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &config.RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    common.NewDuration(100 * time.Millisecond),
		MaxBackoff:        common.NewDuration(500 * time.Millisecond),
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, time.Duration(0), calculateBackoff(1, cfg))

	// Jitter is ±25%, so check bands instead of exact values
	for attempt, base := range map[int]time.Duration{
		2: 100 * time.Millisecond,
		3: 200 * time.Millisecond,
		4: 400 * time.Millisecond,
	} {
		backoff := calculateBackoff(attempt, cfg)
		assert.GreaterOrEqual(t, backoff, time.Duration(float64(base)*0.75), "attempt %d", attempt)
		assert.LessOrEqual(t, backoff, time.Duration(float64(base)*1.25), "attempt %d", attempt)
	}

	// Capped at max backoff plus jitter
	capped := calculateBackoff(10, cfg)
	assert.LessOrEqual(t, capped, time.Duration(float64(500*time.Millisecond)*1.25))
}

func TestRetryWithBackoff_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), testRetryConfig(5), "test", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("operation timeout")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), testRetryConfig(5), "test", func() error {
		attempts++
		return errors.New("invalid input")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), testRetryConfig(3), "test", func() error {
		attempts++
		return errors.New("operation timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
}

func TestRetryWithBackoff_NilConfigRunsOnce(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), nil, "test", func() error {
		attempts++
		return errors.New("operation timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryWithBackoff(ctx, testRetryConfig(5), "test", func() error {
		return errors.New("should not run")
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeout_CompletesInTime(t *testing.T) {
	value, err := WithTimeout(time.Second, func() (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestWithTimeout_DeadlineElapses(t *testing.T) {
	_, err := WithTimeout(10*time.Millisecond, func() (int, error) {
		time.Sleep(time.Second)
		return 42, nil
	})

	require.ErrorIs(t, err, ErrTimeout)
}

func TestWithTimeout_PropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	_, err := WithTimeout(time.Second, func() (int, error) {
		return 0, wantErr
	})

	require.ErrorIs(t, err, wantErr)
}
