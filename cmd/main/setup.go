package main

import (
	"context"

	"chart-feed/src/config"
	"chart-feed/src/interfaces"
	"chart-feed/src/logger"
	"chart-feed/src/session"
	"chart-feed/src/storage"
)

// setupRecorder opens the configured sample archive.
func setupRecorder(ctx context.Context, conf *config.Config, appLogger *logger.Logger) interfaces.IRecorder {
	recorder, err := storage.Open(ctx, conf.MConfig, appLogger.Named("Storage"))
	if err != nil {
		appLogger.Critical("Failed to init recorder: %v", err)
	}
	return recorder
}

// -----------------------------------------------------------------------------

// setupSessions builds one session per configured block.
func setupSessions(conf *config.Config, publisher interfaces.IPublisher, recorder interfaces.IRecorder, appLogger *logger.Logger) *session.Manager {
	sessions, err := session.BuildAll(conf.Sessions, publisher, recorder, appLogger)
	if err != nil {
		appLogger.Critical("Failed to build sessions: %v", err)
	}
	return session.NewManager(sessions, appLogger.Named("SessionManager"))
}
