package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, key, value string) {
	t.Helper()
	original, had := os.LookupEnv(key)
	if value == "" {
		os.Unsetenv(key)
	} else {
		os.Setenv(key, value)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, original)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_DataDir_DefaultsWhenUnset(t *testing.T) {
	withEnv(t, "TERRITORY_DATA_DIR", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_DataDir_FromEnvironment(t *testing.T) {
	tmp := t.TempDir()
	withEnv(t, "TERRITORY_DATA_DIR", tmp)

	cfg, err := Load()

	require.NoError(t, err)
	absPath, _ := filepath.Abs(tmp)
	assert.Equal(t, absPath, cfg.DataDir)
}

func TestLoad_DataDir_CLIOverrideTakesPrecedence(t *testing.T) {
	envDir := t.TempDir()
	cliDir := t.TempDir()
	withEnv(t, "TERRITORY_DATA_DIR", envDir)

	cfg, err := Load(cliDir)

	require.NoError(t, err)
	absPath, _ := filepath.Abs(cliDir)
	assert.Equal(t, absPath, cfg.DataDir)
}

func TestLoad_DataDir_EmptyCLIOverrideFallsBackToEnv(t *testing.T) {
	envDir := t.TempDir()
	withEnv(t, "TERRITORY_DATA_DIR", envDir)

	cfg, err := Load("")

	require.NoError(t, err)
	absPath, _ := filepath.Abs(envDir)
	assert.Equal(t, absPath, cfg.DataDir)
}

func TestLoad_DataDir_CreatesDirectoryIfMissing(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "nested", "data")
	withEnv(t, "TERRITORY_DATA_DIR", tmp)

	cfg, err := Load()

	require.NoError(t, err)
	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_SnapshotDBPath_IsUnderDataDir(t *testing.T) {
	tmp := t.TempDir()
	withEnv(t, "TERRITORY_DATA_DIR", tmp)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.DataDir, "territory.db"), cfg.SnapshotDBPath)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	withEnv(t, "TERRITORY_DATA_DIR", t.TempDir())

	t.Run("PORT as int", func(t *testing.T) {
		withEnv(t, "PORT", "9001")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9001, cfg.Port)
	})

	t.Run("PORT invalid defaults", func(t *testing.T) {
		withEnv(t, "PORT", "not-a-number")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
	})

	t.Run("DEV_MODE true", func(t *testing.T) {
		withEnv(t, "DEV_MODE", "true")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.DevMode)
	})

	t.Run("DEV_MODE defaults false", func(t *testing.T) {
		withEnv(t, "DEV_MODE", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.DevMode)
	})

	t.Run("LOG_LEVEL from env", func(t *testing.T) {
		withEnv(t, "LOG_LEVEL", "debug")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("LOG_LEVEL defaults to info", func(t *testing.T) {
		withEnv(t, "LOG_LEVEL", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("DAILY_REMOTE_QUOTA from env", func(t *testing.T) {
		withEnv(t, "DAILY_REMOTE_QUOTA", "50")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.DailyRemoteQuota)
	})

	t.Run("DAILY_REMOTE_QUOTA defaults", func(t *testing.T) {
		withEnv(t, "DAILY_REMOTE_QUOTA", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 200, cfg.DailyRemoteQuota)
	})

	t.Run("REMOTE_SOLVER_URL from env", func(t *testing.T) {
		withEnv(t, "REMOTE_SOLVER_URL", "http://custom:9999")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://custom:9999", cfg.RemoteSolverURL)
	})

	t.Run("REMOTE_SOLVER_URL defaults", func(t *testing.T) {
		withEnv(t, "REMOTE_SOLVER_URL", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9100", cfg.RemoteSolverURL)
	})
}
