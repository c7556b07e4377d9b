package executor

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-studio/internal/catalog"
	"report-studio/internal/domain"
)

// Execution tests run the generated SQL against in-memory SQLite; the
// builder emits only portable constructs so the same statements DuckDB
// executes in production run here.
func openFundsDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE funds (
		fund_name TEXT,
		region TEXT,
		strategy TEXT,
		inception_date TEXT,
		total_assets REAL,
		annual_return REAL,
		expense_ratio REAL
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO funds VALUES
		('Global Alpha', 'EMEA', 'Growth', '2015-03-01', 120.5, 8.4, 0.9),
		('Euro Income',  'EMEA', 'Income', '2012-07-15', 80.0, 4.2, 0.6),
		('Pacific Core', 'APAC', 'Growth', '2018-01-20', 60.0, 9.1, 1.1),
		('Pacific Bond', 'APAC', 'Income', '2019-05-05', 40.0, 3.3, 0.5)`)
	require.NoError(t, err)
	return db
}

func newFundsExecutor(t *testing.T, opts Options) *DuckDBExecutor {
	t.Helper()
	cat, err := catalog.Builtin(nil)
	require.NoError(t, err)
	exec, err := New(openFundsDB(t), cat, nil, opts)
	require.NoError(t, err)
	return exec
}

func TestExecuteGroupedAggregation(t *testing.T) {
	exec := newFundsExecutor(t, Options{})

	res, err := exec.Execute(t.Context(), "sec-1", &domain.DataQuery{
		Dimensions: []string{"region"},
		Measures:   []string{"total_assets"},
		Sort:       []domain.SortSpec{{FieldID: "region", Direction: domain.SortAsc}},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.GreaterOrEqual(t, res.ExecutionTimeMs, int64(0))

	assert.Equal(t, "APAC", res.Rows[0]["region"])
	assert.InDelta(t, 100.0, res.Rows[0]["total_assets"], 1e-9)
	assert.Equal(t, "EMEA", res.Rows[1]["region"])
	assert.InDelta(t, 200.5, res.Rows[1]["total_assets"], 1e-9)
}

func TestExecuteFilters(t *testing.T) {
	exec := newFundsExecutor(t, Options{})

	res, err := exec.Execute(t.Context(), "sec-1", &domain.DataQuery{
		Dimensions: []string{"fund_name"},
		Filters: []domain.QueryFilter{
			{FieldID: "region", Op: domain.OpEquals, Value: "APAC"},
			{FieldID: "total_assets", Op: domain.OpGreaterThan, Value: 50},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Pacific Core", res.Rows[0]["fund_name"])
}

func TestExecuteCalculatedField(t *testing.T) {
	exec := newFundsExecutor(t, Options{})

	res, err := exec.Execute(t.Context(), "sec-1", &domain.DataQuery{
		Dimensions: []string{"region"},
		Measures:   []string{"avg_return", "expense_ratio", "net_return"},
		Sort:       []domain.SortSpec{{FieldID: "region", Direction: domain.SortAsc}},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	// APAC: avg_return (9.1+3.3)/2 = 6.2, expense (1.1+0.5)/2 = 0.8
	assert.InDelta(t, 5.4, res.Rows[0]["net_return"], 1e-9)
	// EMEA: avg_return (8.4+4.2)/2 = 6.3, expense (0.9+0.6)/2 = 0.75
	assert.InDelta(t, 5.55, res.Rows[1]["net_return"], 1e-9)
}

func TestExecuteAppliesDefaultRowLimit(t *testing.T) {
	exec := newFundsExecutor(t, Options{RowLimit: 2})

	res, err := exec.Execute(t.Context(), "sec-1", &domain.DataQuery{
		Dimensions: []string{"fund_name"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2, "unbounded query capped at the configured row limit")

	// An explicit limit wins over the default.
	res, err = exec.Execute(t.Context(), "sec-1", &domain.DataQuery{
		Dimensions: []string{"fund_name"},
		Limit:      3,
	})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
}

func TestExecuteUnknownFieldFailsAtDispatch(t *testing.T) {
	exec := newFundsExecutor(t, Options{})

	_, err := exec.Execute(t.Context(), "sec-1", &domain.DataQuery{
		Dimensions: []string{"no_such_field"},
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr, "field existence is validated when the query runs, not when it is assembled")
}

func TestExecuteEmptyResult(t *testing.T) {
	exec := newFundsExecutor(t, Options{})

	res, err := exec.Execute(t.Context(), "sec-1", &domain.DataQuery{
		Dimensions: []string{"fund_name"},
		Filters:    []domain.QueryFilter{{FieldID: "region", Op: domain.OpEquals, Value: "LATAM"}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}
