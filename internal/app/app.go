// Package app provides application-level wiring and dependency injection
// for report-studio following hexagonal architecture.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"report-studio/internal/catalog"
	"report-studio/internal/composer"
	"report-studio/internal/config"
	"report-studio/internal/db/repository"
	"report-studio/internal/executor"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config, and the DuckDB connection.
type Deps struct {
	Cfg     *config.Config
	DuckDB  *sql.DB
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application: field catalog, query executor,
// report repository, and a factory for composition stores.
type App struct {
	Catalog  *catalog.Service
	Executor *executor.DuckDBExecutor
	Reports  *repository.ReportRepo

	cfg    *config.Config
	logger *slog.Logger
}

// New wires the catalog, executor, and repository from the provided deps.
func New(_ context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	var cat *catalog.Service
	var err error
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath, deps.Logger)
	} else {
		cat, err = catalog.Builtin(deps.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("load field catalog: %w", err)
	}

	exec, err := executor.New(deps.DuckDB, cat, deps.Logger, executor.Options{
		RateRPS:   cfg.QueryRateRPS,
		RateBurst: cfg.QueryRateBurst,
		RowLimit:  cfg.QueryRowLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("create query executor: %w", err)
	}

	return &App{
		Catalog:  cat,
		Executor: exec,
		Reports:  repository.NewReportRepo(deps.WriteDB, deps.ReadDB),
		cfg:      cfg,
		logger:   deps.Logger,
	}, nil
}

// NewStore creates a composition store wired to the app's executor and
// configured history cap.
func (a *App) NewStore() *composer.Store {
	return composer.NewStore(a.Executor, a.logger, composer.Options{
		HistoryLimit:     a.cfg.HistoryLimit,
		DebounceInterval: a.cfg.Debounce,
	})
}

// NewEditor creates a debounced property editor over the given store.
func (a *App) NewEditor(store *composer.Store) *composer.Editor {
	return composer.NewEditor(store, a.cfg.Debounce)
}
