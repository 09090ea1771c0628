package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/api"
	"carelytics.io/homehealth/internal/config"
	"carelytics.io/homehealth/internal/dal"
	"carelytics.io/homehealth/internal/metrics"
	"carelytics.io/homehealth/pkg/logsetup"
)

func main() {
	// Load .env file if present, otherwise rely on the environment
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("No .env file found, assuming environment variables are set")
	}

	cfg := config.FromEnv()

	logsetup.SetAppPrefix("homehealth-api")
	if err := logsetup.StartupWithEnv(cfg.ElasticsearchURL, cfg.LogLevel, "logs"); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}

	log.Info().Msg("Starting homehealth analytics API")

	// Start system metrics collection
	metrics.StartSystemMetricsCollection("homehealth-api")

	conn, err := dal.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
	}
	store := dal.NewStore(conn)

	repo := api.NewReportRepository(store, cfg)

	// Build the initial report snapshot. A failure here is not fatal;
	// the API serves 503 on report endpoints until a refresh succeeds.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := repo.Reload(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial report build failed, waiting for refresh")
	}
	cancel()

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: api.NewServer(store, repo).SetupRoutes(),
	}

	// Listen for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().
			Str("port", cfg.APIPort).
			Msg("Server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().
				Err(err).
				Msg("Failed to start server")
		}
	}()

	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Closing database connection...")
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connection")
	}

	log.Info().Msg("API service shutdown complete")
}
