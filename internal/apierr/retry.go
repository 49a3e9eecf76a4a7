package apierr

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds parameters for linear backoff retry.
//
// Invalid values are normalized:
//   - MaxAttempts < 1 becomes 1 (single attempt)
//   - BaseDelay <= 0 becomes 1ms
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// normalize ensures all RetryConfig fields have valid values.
func (c *RetryConfig) normalize() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
}

// RetryLinear executes fn up to MaxAttempts times, retrying only when
// shouldRetry returns true for the error. The delay before attempt n+1 is
// BaseDelay * n, scaling linearly with the attempt number. After the final
// attempt the last error propagates.
func RetryLinear[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	cfg.normalize()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := cfg.BaseDelay * time.Duration(attempt-1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
	}

	return zero, fmt.Errorf("max attempts (%d) exhausted: %w", cfg.MaxAttempts, lastErr)
}
