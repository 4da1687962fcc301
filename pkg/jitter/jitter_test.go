package jitter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff_Bounds(t *testing.T) {
	base := 10 * time.Millisecond
	max := 50 * time.Millisecond

	for attempt := 0; attempt < 6; attempt++ {
		d := ExponentialBackoff(base, max, attempt, DefaultJitter)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, time.Duration(float64(max)*(1+DefaultJitter)))
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{Attempts: 3, Base: time.Millisecond, Max: 2 * time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Retry(context.Background(), Policy{Attempts: 2, Base: time.Millisecond, Max: time.Millisecond}, func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, Policy{Attempts: 5, Base: time.Second, Max: time.Second}, func(context.Context) error {
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
