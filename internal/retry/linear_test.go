package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Linear(context.Background(), 5, time.Millisecond, func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("down")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestLinearGivesUp(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	err := Linear(context.Background(), 3, time.Millisecond, func(int) error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestLinearDelayGrowsWithAttempt(t *testing.T) {
	base := 5 * time.Millisecond
	start := time.Now()
	_ = Linear(context.Background(), 3, base, func(int) error { return errors.New("x") })

	// waits 1*base + 2*base between the three attempts
	assert.GreaterOrEqual(t, time.Since(start), 3*base)
}

func TestLinearHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Linear(ctx, 10, time.Hour, func(int) error {
		calls++
		return errors.New("x")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
