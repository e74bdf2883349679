package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/vidscript-go/internal/auth"
	"github.com/user/vidscript-go/internal/config"
	"github.com/user/vidscript-go/internal/media"
	"github.com/user/vidscript-go/internal/pipeline"
	"github.com/user/vidscript-go/internal/server"
	"github.com/user/vidscript-go/internal/store"
	"github.com/user/vidscript-go/internal/transcribe"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func main() {
	// Structured JSON logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	mysqlStore, err := store.NewMySQLStore(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Database connection established")

	extractor := media.NewYtDlpExtractor(&cfg.Media)
	transcriber := transcribe.NewWhisperClient(&cfg.Whisper)
	verifier := auth.NewVerifier(&cfg.Auth)

	pool := pipeline.NewPool(cfg.Jobs.Workers, cfg.Jobs.QueueSize)
	orchestrator := pipeline.NewOrchestrator(mysqlStore, extractor, transcriber, pool)
	log.Info().Int("workers", cfg.Jobs.Workers).Msg("Job pipeline initialized")

	reaper, err := pipeline.NewReaper(mysqlStore, &cfg.Jobs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stale job reaper")
	}
	reaper.Start()
	log.Info().Str("schedule", cfg.Jobs.ReaperSchedule).Msg("Stale job reaper started")

	httpServer := server.NewServer(orchestrator, mysqlStore, verifier, cfg.Server.AllowedOrigins)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	log.Info().Msg("VidScript API started successfully")

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop accepting new requests
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 2. Stop the reaper
	reaper.Stop()
	log.Info().Msg("Stale job reaper stopped")

	// 3. Let in-flight jobs reach a terminal state
	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("Job pipeline drained")
	case <-shutdownCtx.Done():
		log.Warn().Msg("Shutdown timeout exceeded with jobs still running; the reaper will fail them later")
	}

	// 4. Close database connection pool
	if err := mysqlStore.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	} else {
		log.Info().Msg("Database connection closed")
	}

	log.Info().Msg("Graceful shutdown completed")
}
