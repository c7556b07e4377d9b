// Package cli implements the reportctl command-line interface: authoring,
// inspecting, and running report definitions against the local metastore
// and DuckDB, no network involved.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"report-studio/internal/app"
	"report-studio/internal/config"
	"report-studio/internal/db"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var output string

	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Report Studio CLI",
		Long:          "Command-line interface for authoring and running report definitions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().String("db", "", "Path to the SQLite report metastore (default $REPORT_DB_PATH)")
	rootCmd.PersistentFlags().String("duckdb", "", "Path to the DuckDB data file (default $DUCKDB_PATH, empty = in-memory)")
	rootCmd.PersistentFlags().String("catalog", "", "Path to the field catalog YAML (default $CATALOG_PATH, empty = demo catalog)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newSectionCmd())
	rootCmd.AddCommand(newFieldsCmd())
	rootCmd.AddCommand(newFieldCmd())
	rootCmd.AddCommand(newDropCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newDemoCmd())

	return rootCmd
}

// openApp wires a full application from config, flags taking precedence
// over environment. The returned closer shuts down every pool.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, func(), error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Root().PersistentFlags()
	if v, _ := flags.GetString("db"); v != "" {
		cfg.ReportDBPath = v
	}
	if v, _ := flags.GetString("duckdb"); v != "" {
		cfg.DuckDBPath = v
	}
	if v, _ := flags.GetString("catalog"); v != "" {
		cfg.CatalogPath = v
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	writeDB, readDB, err := db.OpenSQLitePair(cfg.ReportDBPath, 0)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, nil, err
	}

	duck, err := sql.Open("duckdb", cfg.DuckDBPath)
	if err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, nil, fmt.Errorf("open duckdb: %w", err)
	}

	// The demo catalog ships with its own dataset.
	if cfg.CatalogPath == "" {
		if err := app.SeedDemoData(ctx, duck); err != nil {
			_ = duck.Close()
			_ = readDB.Close()
			_ = writeDB.Close()
			return nil, nil, err
		}
	}

	a, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		DuckDB:  duck,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		_ = duck.Close()
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, nil, err
	}

	closer := func() {
		_ = duck.Close()
		_ = readDB.Close()
		_ = writeDB.Close()
	}
	return a, closer, nil
}
