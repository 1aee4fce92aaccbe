// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/application/container"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
	"github.com/BrightFrames/tapx-go/internal/presentation/http/server"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// Initialize runs the complete startup sequence and blocks until shutdown.
func Initialize() error {
	setupGinMode()

	start := time.Now().UTC()

	log.Println("TapX backend starting...")

	// Step 1: Logging
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    config.LogToFile,
		OutputToConsole: true,
		LogDirectory:    config.LogDirectory,
		JSONFormat:      config.LogJSON,
		DefaultLevel:    logging.ParseLevel(config.LogLevel),
		ChannelLevels:   map[logging.Channel]slog.Level{},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()

	logger.Startup().Info("Channeled logging initialized")

	// Step 2: Database
	logger.Startup().Info("Opening database...")
	db, err := database.Open(logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Startup().Info("Database ready", "connection", db.ConnectionInfo())

	// Step 3: Schema
	logger.Startup().Info("Ensuring schema...")
	if err := database.NewTableCreator().CreateSchema(db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Step 4: Dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(db, logger)
	logger.Startup().Info("Container initialization complete")

	// Step 5: HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped")
	}

	logger.Shutdown().Info("Draining background tasks...")
	appContainer.TaskRunner.Drain()

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}

func setupGinMode() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
