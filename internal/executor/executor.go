package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"report-studio/internal/catalog"
	"report-studio/internal/domain"
)

const (
	// DefaultRowLimit caps result sets for queries that declare no limit.
	DefaultRowLimit = 1000

	defaultRateRPS   = 10
	defaultRateBurst = 5
)

// Options tunes the executor. Zero values fall back to defaults.
type Options struct {
	RateRPS   float64
	RateBurst int
	RowLimit  int
}

// DuckDBExecutor implements domain.QueryExecutor against a DuckDB
// connection. Dispatches are rate limited so a burst of preview refreshes
// cannot saturate the database.
type DuckDBExecutor struct {
	db       *sql.DB
	builder  *Builder
	catalog  *catalog.Service
	limiter  *rate.Limiter
	rowLimit int
	logger   *slog.Logger
}

// New creates an executor bound to the catalog's source table.
func New(db *sql.DB, cat *catalog.Service, logger *slog.Logger, opts Options) (*DuckDBExecutor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fields, err := cat.ListFields(context.Background())
	if err != nil {
		return nil, fmt.Errorf("list catalog fields: %w", err)
	}

	rps := opts.RateRPS
	if rps <= 0 {
		rps = defaultRateRPS
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	rowLimit := opts.RowLimit
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}

	return &DuckDBExecutor{
		db:       db,
		builder:  NewBuilder(cat.Table(), fields),
		catalog:  cat,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		rowLimit: rowLimit,
		logger:   logger.With("component", "executor"),
	}, nil
}

// Execute compiles and runs the query, returning rows keyed by field id.
func (e *DuckDBExecutor) Execute(ctx context.Context, sectionID string, q *domain.DataQuery) (*domain.QueryResult, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	bounded := q.Clone()
	if bounded.Limit <= 0 {
		bounded.Limit = e.rowLimit
	}

	plan, err := e.builder.Build(bounded)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute query for section %s: %w", sectionID, err)
	}
	defer rows.Close() //nolint:errcheck

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}

	if err := e.applyCalculated(plan.Calculated, out); err != nil {
		return nil, err
	}

	elapsed := time.Since(start).Milliseconds()
	e.logger.Debug("query executed",
		"section_id", sectionID,
		"rows", len(out),
		"duration_ms", elapsed,
	)

	return &domain.QueryResult{Rows: out, ExecutionTimeMs: elapsed}, nil
}

// applyCalculated evaluates formula fields against each scanned row.
func (e *DuckDBExecutor) applyCalculated(fields []domain.Field, rows []map[string]interface{}) error {
	for _, f := range fields {
		for _, row := range rows {
			val, err := e.catalog.EvalFormula(&f, row)
			if err != nil {
				return err
			}
			row[f.ID] = val
		}
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
