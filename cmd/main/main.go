package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chart-feed/src/config"
	"chart-feed/src/logger"
	"chart-feed/src/scheduler"
	"chart-feed/src/server"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)
	defer appLogger.Sync()

	// Lifecycle Management
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Setup Components
	recorder := setupRecorder(ctx, conf, appLogger)

	// Sessions publish into the server, the server looks sessions up
	srv := server.NewFastAPIServer(conf.MConfig, appLogger.Named("FastAPIServer"))
	manager := setupSessions(conf, srv, recorder, appLogger)
	srv.SetSessionManager(manager)

	// 5. Start Sessions (seed, then tick)
	if err := manager.Start(ctx); err != nil {
		appLogger.Critical("Failed to start sessions: %v", err)
	}

	// 6. Maintenance
	maintenance := scheduler.NewMaintenance(recorder, manager, appLogger.Named("Maintenance"))
	if err := maintenance.RegisterAll(conf.Storage.CleanupCron, scheduler.DefaultStatusCron); err != nil {
		appLogger.Critical("Failed to schedule maintenance: %v", err)
	}
	maintenance.Start()

	// 7. Serve until a signal arrives
	appLogger.Info("Serving %d sessions", len(manager.GetAllSessions()))
	if err := runServers(ctx, srv, manager, recorder, conf, *configPath, appLogger); err != nil {
		appLogger.Error("Server failed: %v", err)
	}

	// 8. Shutdown
	appLogger.Info("Shutting down...")
	maintenance.Stop()
	if err := manager.Stop(); err != nil {
		appLogger.Warning("Stopping sessions: %v", err)
	}
	if err := recorder.Close(); err != nil {
		appLogger.Warning("Closing recorder: %v", err)
	}
	appLogger.Info("Shutdown complete.")
}
