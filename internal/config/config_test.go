package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	t.Setenv("REPORT_DB_PATH", "/tmp/reports.sqlite")
	t.Setenv("DUCKDB_PATH", "/tmp/data.duckdb")
	t.Setenv("CATALOG_PATH", "/tmp/catalog.yaml")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HISTORY_LIMIT", "20")
	t.Setenv("DEBOUNCE_MS", "250")
	t.Setenv("QUERY_RATE_RPS", "2.5")
	t.Setenv("QUERY_RATE_BURST", "3")
	t.Setenv("QUERY_ROW_LIMIT", "100")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/reports.sqlite", cfg.ReportDBPath)
	assert.Equal(t, "/tmp/data.duckdb", cfg.DuckDBPath)
	assert.Equal(t, "/tmp/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 2.5, cfg.QueryRateRPS)
	assert.Equal(t, 3, cfg.QueryRateBurst)
	assert.Equal(t, 100, cfg.QueryRowLimit)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("REPORT_DB_PATH", "")
	t.Setenv("DUCKDB_PATH", "")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HISTORY_LIMIT", "")
	t.Setenv("DEBOUNCE_MS", "")
	t.Setenv("QUERY_RATE_RPS", "")
	t.Setenv("QUERY_RATE_BURST", "")
	t.Setenv("QUERY_ROW_LIMIT", "")
	t.Setenv("ENV", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "report_studio.sqlite", cfg.ReportDBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 10.0, cfg.QueryRateRPS)
	assert.Equal(t, 5, cfg.QueryRateBurst)
	assert.Equal(t, 1000, cfg.QueryRowLimit)
	assert.Len(t, cfg.Warnings, 2, "demo catalog and in-memory DuckDB warnings")
}

func TestLoadFromEnv_BadValues(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "zero")
	_, err := LoadFromEnv()
	require.Error(t, err)

	t.Setenv("HISTORY_LIMIT", "0")
	_, err = LoadFromEnv()
	require.Error(t, err)

	t.Setenv("HISTORY_LIMIT", "")
	t.Setenv("DEBOUNCE_MS", "-5")
	_, err = LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_ProductionRequiresExplicitPaths(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("DUCKDB_PATH", "")

	_, err := LoadFromEnv()
	require.Error(t, err)

	t.Setenv("CATALOG_PATH", "/etc/report-studio/catalog.yaml")
	_, err = LoadFromEnv()
	require.Error(t, err, "DUCKDB_PATH still missing")

	t.Setenv("DUCKDB_PATH", "/var/lib/report-studio/data.duckdb")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tc := range tests {
		cfg := &Config{LogLevel: tc.level}
		assert.Equal(t, tc.want, cfg.SlogLevel(), "level %q", tc.level)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_KEY=test_value\n# comment\nTEST_QUOTED='quoted'\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_KEY"); val != "test_value" {
		t.Errorf("TEST_KEY = %q, want %q", val, "test_value")
	}
	if val := os.Getenv("TEST_QUOTED"); val != "quoted" {
		t.Errorf("TEST_QUOTED = %q, want %q", val, "quoted")
	}
	_ = os.Unsetenv("TEST_KEY")
	_ = os.Unsetenv("TEST_QUOTED")
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_PRECEDENCE_KEY"); val != "from_env" {
		t.Errorf("TEST_PRECEDENCE_KEY = %q, want %q (env precedence)", val, "from_env")
	}
}
