// Package logger builds the zerolog.Logger used throughout the optimizer,
// so every component logs with the same fields and the same level.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how the root logger is constructed.
type Config struct {
	// Level is a zerolog level name: "debug", "info", "warn", "error". An
	// unrecognized value falls back to "info".
	Level string
	// Pretty enables zerolog's human-readable console writer. Production
	// deployments should leave this false and ship newline-delimited JSON.
	Pretty bool
}

// New builds a root logger writing to stdout with an "app" field set, so
// downstream log aggregation can distinguish this process from the solver
// microservice.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var writer = os.Stdout
	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}).
			Level(level).
			With().
			Timestamp().
			Str("app", "territory-optimizer").
			Logger()
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("app", "territory-optimizer").
		Logger()
}
