// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings for the report studio: metastore location,
// field catalog source, engine tunables, and query execution limits.
type Config struct {
	ReportDBPath string // path to the SQLite report metastore
	DuckDBPath   string // path to the DuckDB data file ("" = in-memory)
	CatalogPath  string // field catalog YAML ("" = built-in demo catalog)
	LogLevel     string // log level: debug, info, warn, error (default "info")
	Env          string // environment: "development" (default) or "production"

	// Engine tunables.
	HistoryLimit int           // undo/redo snapshot cap (default 50)
	Debounce     time.Duration // property-edit debounce interval (default 500ms)

	// Query execution limits.
	QueryRateRPS   float64 // sustained query dispatches per second (default 10)
	QueryRateBurst int     // burst capacity (default 5)
	QueryRowLimit  int     // row cap for queries without an explicit limit (default 1000)

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults for anything unset.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ReportDBPath: os.Getenv("REPORT_DB_PATH"),
		DuckDBPath:   os.Getenv("DUCKDB_PATH"),
		CatalogPath:  os.Getenv("CATALOG_PATH"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		Env:          os.Getenv("ENV"),
	}

	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("HISTORY_LIMIT must be a positive integer, got %q", v)
		}
		cfg.HistoryLimit = n
	}
	if v := os.Getenv("DEBOUNCE_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("DEBOUNCE_MS must be a non-negative integer, got %q", v)
		}
		cfg.Debounce = time.Duration(n) * time.Millisecond
	}
	if v := os.Getenv("QUERY_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.QueryRateRPS = f
		}
	}
	if v := os.Getenv("QUERY_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueryRateBurst = n
		}
	}
	if v := os.Getenv("QUERY_ROW_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueryRowLimit = n
		}
	}

	// Defaults
	if cfg.ReportDBPath == "" {
		cfg.ReportDBPath = "report_studio.sqlite"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.QueryRateRPS == 0 {
		cfg.QueryRateRPS = 10
	}
	if cfg.QueryRateBurst == 0 {
		cfg.QueryRateBurst = 5
	}
	if cfg.QueryRowLimit == 0 {
		cfg.QueryRowLimit = 1000
	}

	if cfg.CatalogPath == "" {
		cfg.Warnings = append(cfg.Warnings, "CATALOG_PATH not set — using the built-in demo catalog")
	}
	if cfg.DuckDBPath == "" {
		cfg.Warnings = append(cfg.Warnings, "DUCKDB_PATH not set — using an in-memory DuckDB database")
	}

	// Production mode: demo defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.CatalogPath == "" {
			return nil, fmt.Errorf("CATALOG_PATH must be set in production (ENV=production)")
		}
		if cfg.DuckDBPath == "" {
			return nil, fmt.Errorf("DUCKDB_PATH must be set in production (ENV=production)")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
