// Package main provides the API server entry point for the realtoken portfolio service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/realtoken-portfolio/internal/api"
	"github.com/realtoken-portfolio/internal/app"
	"github.com/realtoken-portfolio/internal/config"
	"github.com/realtoken-portfolio/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	ctx := logging.WithLogger(context.Background(), logger)

	logger.Info("Connecting to databases...")
	services, err := app.New(ctx, cfg, app.Options{
		MigrationsPath: getMigrationsPath(),
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}
	defer services.Close()

	// Warm the catalog so the first portfolio request does not pay for it
	if _, err := services.Catalog.GetCatalog(ctx); err != nil {
		logger.WithError(err).Warn("Initial catalog load failed")
	}

	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}

	var market api.MarketServiceInterface = unavailableMarket{}
	if services.Market != nil {
		market = services.Market
	}

	server := api.NewServer(serverConfig, services.Catalog, services.Portfolio, market, services.Wallets)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// getMigrationsPath returns the Postgres migrations directory, empty to skip
func getMigrationsPath() string {
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		return path
	}
	if _, err := os.Stat("migrations/postgres"); err == nil {
		return "migrations/postgres"
	}
	return ""
}
