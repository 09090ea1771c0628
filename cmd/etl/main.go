package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"carelytics.io/homehealth/internal/config"
	"carelytics.io/homehealth/internal/dal"
	"carelytics.io/homehealth/internal/ingest"
	"carelytics.io/homehealth/internal/registry"
	"carelytics.io/homehealth/pkg/logsetup"
)

func main() {
	claimsFlag := flag.String("claims", "", "path to the claims CSV (overrides CLAIMS_PATH)")
	visitsFlag := flag.String("visits", "", "path to the visit log CSV (overrides VISITS_PATH)")
	inMemory := flag.Bool("mem", false, "run against an in-memory store instead of Couchbase")
	flag.Parse()

	// Load .env file if present, otherwise rely on the environment
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("No .env file found, assuming environment variables are set")
	}

	cfg := config.FromEnv()
	if *claimsFlag != "" {
		cfg.ClaimsPath = *claimsFlag
	}
	if *visitsFlag != "" {
		cfg.VisitsPath = *visitsFlag
	}

	logsetup.SetAppPrefix("homehealth-etl")
	if err := logsetup.StartupWithEnv(cfg.ElasticsearchURL, cfg.LogLevel, "logs"); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}

	log.Info().Msg("Starting homehealth ETL run")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	var (
		store     registry.Store
		importLog ingest.ImportLog
	)

	if *inMemory {
		store = registry.NewMemoryStore()
		importLog = ingest.LogImportLog{}
	} else {
		conn, err := dal.NewConnection(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
		}
		defer conn.Close()

		host, _ := os.Hostname()
		lock := dal.NewIngestLock(conn, host)
		if err := lock.Acquire(); err != nil {
			log.Fatal().Err(err).Msg("Another ingestion run holds the lock")
		}
		defer func() {
			if err := lock.Release(); err != nil {
				log.Warn().Err(err).Msg("Failed to release ingest lock")
			}
		}()

		store = dal.NewStore(conn)
		importLog = dal.NewImportLogModel(conn)
	}

	resolver := registry.NewResolver(store, nil, cfg.MatchThreshold)
	pipeline := ingest.NewPipeline(store, resolver, importLog)

	if err := pipeline.Run(ctx, cfg.ClaimsPath, cfg.VisitsPath); err != nil {
		log.Error().Err(err).Msg("ETL run finished with failed files")
		os.Exit(1)
	}

	log.Info().
		Str("batch", pipeline.Batch).
		Int("records_imported", pipeline.Stats.RecordsImported).
		Msg("ETL run complete")
}
