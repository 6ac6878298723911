// Package main is the entry point for the territory assignment optimizer.
// It loads configuration, wires every dependency through internal/di, starts
// the HTTP API and the periodic resolve scheduler, and waits for a shutdown
// signal to drain both gracefully.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/di"
	"github.com/aristath/sentinel/pkg/logger"
)

// main orchestrates process startup:
//  1. Parse --data-dir (overrides TERRITORY_DATA_DIR).
//  2. Load configuration.
//  3. Build the root logger.
//  4. Wire every dependency via di.Wire.
//  5. Start the HTTP server in a goroutine and the resolve scheduler.
//  6. Block for SIGINT/SIGTERM, then shut both down gracefully.
func main() {
	var dataDirFlag string
	flag.StringVar(&dataDirFlag, "data-dir", "", "Data directory path (overrides TERRITORY_DATA_DIR environment variable)")
	flag.Parse()

	cfg, err := config.Load(dataDirFlag)
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting territory optimizer")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	defer container.Close()

	go func() {
		if err := container.Server.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start http server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("http server started")

	container.Scheduler.Start()
	log.Info().Str("schedule", cfg.SolveScheduleCron).Msg("resolve scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, draining")

	container.Scheduler.Stop()
	log.Info().Msg("resolve scheduler stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := container.Server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shut down")
	}

	log.Info().Msg("territory optimizer stopped")
}
