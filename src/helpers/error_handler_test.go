package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	"chart-feed/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartFeedError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewSourceError("walk", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "source walk unavailable: connection refused", err.Error())

	var srcErr *SourceError
	assert.True(t, errors.As(error(err), &srcErr))

	plain := NewValidationError("bad %s", "direction")
	assert.Equal(t, "bad direction", plain.Error())
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), log, "ping", 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := RetryWithBackoff(context.Background(), log, "ping", 2, time.Millisecond, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, calls)
	})

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, log, "ping", 5, time.Hour, func() error {
			return errors.New("down")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestErrorHandler_Escalates(t *testing.T) {
	h := NewErrorHandler(logger.NewNopLogger(), 3)

	assert.False(t, h.Handle(nil, "tick"))
	assert.False(t, h.Handle(errors.New("x"), "tick"))
	assert.False(t, h.Handle(errors.New("x"), "tick"))
	assert.True(t, h.Handle(errors.New("x"), "tick"))
	assert.Equal(t, 3, h.ErrorCount())

	h.ResetErrorCount()
	assert.Equal(t, 0, h.ErrorCount())
}
