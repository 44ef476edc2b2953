package scheduler

import (
	"fmt"
	"sync/atomic"

	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/session"

	"github.com/robfig/cron/v3"
)

// DefaultStatusCron is how often running sessions are summarised in the log.
const DefaultStatusCron = "@every 1m"

// Maintenance runs the housekeeping jobs of the process on cron schedules.
type Maintenance struct {
	Cron     *cron.Cron
	Recorder interfaces.IRecorder
	Sessions *session.Manager
	Logger   *logger.Logger

	cleanups atomic.Int64
}

// NewMaintenance creates a scheduler. Schedules use the standard five field
// syntax plus descriptors such as "@every 1h".
func NewMaintenance(rec interfaces.IRecorder, sessions *session.Manager, log *logger.Logger) *Maintenance {
	cl := cronLogger{log: log}
	return &Maintenance{
		Cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		Recorder: rec,
		Sessions: sessions,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

// RegisterAll registers the retention cleanup and the status report.
func (m *Maintenance) RegisterAll(cleanupCron, statusCron string) error {
	if m.Recorder != nil {
		if _, err := m.Cron.AddFunc(cleanupCron, m.RunCleanupNow); err != nil {
			return fmt.Errorf("register cleanup task: %w", err)
		}
	}
	if m.Sessions != nil {
		if _, err := m.Cron.AddFunc(statusCron, m.logStatus); err != nil {
			return fmt.Errorf("register status task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (m *Maintenance) Start() {
	m.Cron.Start()
	m.Logger.Info("Maintenance scheduler started with %d jobs", len(m.Cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs.
func (m *Maintenance) Stop() {
	<-m.Cron.Stop().Done()
	m.Logger.Info("Maintenance scheduler stopped")
}

// -----------------------------------------------------------------------------

// RunCleanupNow applies the recorder retention policy immediately.
func (m *Maintenance) RunCleanupNow() {
	if err := m.Recorder.CleanupOldData(); err != nil {
		m.Logger.Error("Retention cleanup failed: %v", err)
		return
	}
	m.cleanups.Add(1)
	m.Logger.Debug("Retention cleanup done")
}

// Cleanups is the number of successful cleanup runs.
func (m *Maintenance) Cleanups() int64 {
	return m.cleanups.Load()
}

func (m *Maintenance) logStatus() {
	for _, st := range m.Sessions.Statuses() {
		m.Logger.Info("Session %s: running=%t paused=%t length=%d visible=%d produced=%d",
			st.Name, st.IsRunning, st.Paused, st.StreamLength, st.VisibleCount, st.Produced)
	}
}

// -----------------------------------------------------------------------------

// cronLogger routes cron's own messages into the component logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error("cron %s: %v %v", msg, err, keysAndValues)
}
