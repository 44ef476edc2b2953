package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chart-feed/src/logger"
	"chart-feed/src/models"
	"chart-feed/src/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	calls atomic.Int64
	err   error
}

func (r *countingRecorder) Initialize() error { return nil }

func (r *countingRecorder) SaveSamples(session string, samples []models.MSample) error {
	return nil
}

func (r *countingRecorder) CleanupOldData() error {
	r.calls.Add(1)
	return r.err
}

func (r *countingRecorder) Close() error { return nil }

// -----------------------------------------------------------------------------

func TestRegisterAll(t *testing.T) {
	log := logger.NewNopLogger()
	manager := session.NewManager(nil, log)

	t.Run("both jobs", func(t *testing.T) {
		m := NewMaintenance(&countingRecorder{}, manager, log)
		require.NoError(t, m.RegisterAll("@every 1h", DefaultStatusCron))
		assert.Len(t, m.Cron.Entries(), 2)
	})

	t.Run("no recorder", func(t *testing.T) {
		m := NewMaintenance(nil, manager, log)
		require.NoError(t, m.RegisterAll("@every 1h", DefaultStatusCron))
		assert.Len(t, m.Cron.Entries(), 1)
	})

	t.Run("bad schedule", func(t *testing.T) {
		m := NewMaintenance(&countingRecorder{}, manager, log)
		assert.Error(t, m.RegisterAll("every hour please", DefaultStatusCron))
	})
}

func TestRunCleanupNow(t *testing.T) {
	log := logger.NewNopLogger()

	rec := &countingRecorder{}
	m := NewMaintenance(rec, nil, log)
	m.RunCleanupNow()
	assert.Equal(t, int64(1), rec.calls.Load())
	assert.Equal(t, int64(1), m.Cleanups())

	failing := &countingRecorder{err: errors.New("disk full")}
	m = NewMaintenance(failing, nil, log)
	m.RunCleanupNow()
	assert.Equal(t, int64(1), failing.calls.Load())
	assert.Equal(t, int64(0), m.Cleanups())
}

func TestScheduledCleanupRuns(t *testing.T) {
	log := logger.NewNopLogger()
	rec := &countingRecorder{}

	m := NewMaintenance(rec, session.NewManager(nil, log), log)
	require.NoError(t, m.RegisterAll("@every 1s", "@every 1s"))
	m.Start()
	defer m.Stop()

	assert.Eventually(t, func() bool { return rec.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
