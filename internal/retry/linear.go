package retry

import (
	"context"
	"fmt"
	"time"
)

// Linear calls fn until it succeeds or attempts are exhausted. After the n-th
// failed attempt it waits n*base before trying again. No wait follows the
// last attempt. The returned error wraps the last failure.
func Linear(ctx context.Context, attempts int, base time.Duration, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(attempt); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(time.Duration(attempt) * base)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}
