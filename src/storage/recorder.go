package storage

import (
	"context"
	"fmt"
	"time"

	"chart-feed/src/config"
	"chart-feed/src/helpers"
	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/models"
)

// NoopRecorder discards everything; used when db_type is "none".
type NoopRecorder struct{}

func (NoopRecorder) Initialize() error { return nil }

func (NoopRecorder) SaveSamples(session string, samples []models.MSample) error { return nil }

func (NoopRecorder) CleanupOldData() error { return nil }

func (NoopRecorder) Close() error { return nil }

// -----------------------------------------------------------------------------

// NewRecorder picks the backend named by storage.db_type.
func NewRecorder(cfg *models.MConfig, log *logger.Logger) (interfaces.IRecorder, error) {
	switch cfg.Storage.DBType {
	case config.DBNone, "":
		return NoopRecorder{}, nil
	case config.DBSQLite:
		return NewSQLiteRecorder(&cfg.Storage, log), nil
	case config.DBPostgres:
		return NewPostgresRecorder(cfg.Name, &cfg.Storage, log), nil
	default:
		return nil, &helpers.ConfigurationError{ChartFeedError: helpers.ChartFeedError{
			Message: fmt.Sprintf("unsupported database type: %s", cfg.Storage.DBType),
		}}
	}
}

// -----------------------------------------------------------------------------

// Open builds the configured recorder, initialises it with retries and wraps it
// for asynchronous writes.
func Open(ctx context.Context, cfg *models.MConfig, log *logger.Logger) (interfaces.IRecorder, error) {
	inner, err := NewRecorder(cfg, log)
	if err != nil {
		return nil, err
	}
	if _, ok := inner.(NoopRecorder); ok {
		log.Info("Recording disabled")
		return inner, nil
	}

	async := NewAsyncRecorder(inner, DefaultQueueSize, log)
	err = helpers.RetryWithBackoff(ctx, log, "recorder initialisation", 3, 500*time.Millisecond, async.Initialize)
	if err != nil {
		return nil, helpers.NewStorageError("initialise "+cfg.Storage.DBType, err)
	}

	log.Info("Recording samples to %s", cfg.Storage.DBType)
	return async, nil
}
