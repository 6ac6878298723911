// Package config loads the territory optimizer's runtime configuration from
// environment variables (optionally backed by a .env file), with a CLI flag
// able to override the data directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the resolved runtime configuration for one process lifetime.
type Config struct {
	DataDir             string
	Port                int
	DevMode             bool
	LogLevel            string
	RemoteSolverURL     string
	DailyRemoteQuota    int
	SnapshotDBPath      string
	ArchiveBucket       string
	ArchiveAccountID    string
	ArchiveAccessKey    string
	ArchiveSecretKey    string
	SolveScheduleCron   string
}

// Load resolves configuration from (in precedence order) a CLI-supplied data
// directory, the TERRITORY_DATA_DIR environment variable, then a built-in
// default, loading a .env file first if present. dataDirOverride is optional
// — pass "" or omit it to use the environment/default.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	dataDir := os.Getenv("TERRITORY_DATA_DIR")
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	}
	if dataDir == "" {
		dataDir = "/var/lib/territory-optimizer/data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvInt("PORT", 8080),
		DevMode:           getEnvBool("DEV_MODE", false),
		LogLevel:          getEnvString("LOG_LEVEL", "info"),
		RemoteSolverURL:   getEnvString("REMOTE_SOLVER_URL", "http://localhost:9100"),
		DailyRemoteQuota:  getEnvInt("DAILY_REMOTE_QUOTA", 200),
		SnapshotDBPath:    filepath.Join(absDataDir, "territory.db"),
		ArchiveBucket:     getEnvString("ARCHIVE_BUCKET", ""),
		ArchiveAccountID:  getEnvString("ARCHIVE_ACCOUNT_ID", ""),
		ArchiveAccessKey:  getEnvString("ARCHIVE_ACCESS_KEY_ID", ""),
		ArchiveSecretKey:  getEnvString("ARCHIVE_SECRET_ACCESS_KEY", ""),
		SolveScheduleCron: getEnvString("SOLVE_SCHEDULE_CRON", "0 3 * * *"),
	}

	return cfg, nil
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
