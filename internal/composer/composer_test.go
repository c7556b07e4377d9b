package composer

import (
	"context"
	"sync"
	"testing"
	"time"

	"report-studio/internal/domain"
)

// fakeExecutor records every dispatched query and serves canned results.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []dispatchedQuery
	delay   time.Duration
	err     error
	rows    []map[string]interface{}
	release chan struct{} // when non-nil, Execute blocks until closed
}

type dispatchedQuery struct {
	sectionID string
	query     *domain.DataQuery
}

func (f *fakeExecutor) Execute(ctx context.Context, sectionID string, q *domain.DataQuery) (*domain.QueryResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dispatchedQuery{sectionID: sectionID, query: q.Clone()})
	release := f.release
	delay := f.delay
	err := f.err
	rows := f.rows
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &domain.QueryResult{Rows: rows, ExecutionTimeMs: 3}, nil
}

func (f *fakeExecutor) dispatchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) lastCall() dispatchedQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestStore(t *testing.T) (*Store, *fakeExecutor) {
	t.Helper()
	exec := &fakeExecutor{rows: []map[string]interface{}{{"fund_name": "Global Alpha", "total_assets": 120.5}}}
	store := NewStore(exec, nil, Options{})
	store.Initialize(InitRequest{Name: "Test Report"})
	return store, exec
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// Shared demo fields. fundName routes to dimensions (string), totalAssets
// and avgReturn to measures (aggregated numbers).
var (
	fundNameField    = domain.Field{ID: "fund_name", DisplayName: "Fund Name", Type: domain.FieldTypeString, Aggregation: domain.AggregationNone, Column: "fund_name"}
	regionField      = domain.Field{ID: "region", DisplayName: "Region", Type: domain.FieldTypeString, Aggregation: domain.AggregationNone, Column: "region"}
	totalAssetsField = domain.Field{ID: "total_assets", DisplayName: "Total Assets", Type: domain.FieldTypeNumber, Aggregation: domain.AggregationSum, Column: "total_assets"}
	avgReturnField   = domain.Field{ID: "avg_return", DisplayName: "Average Return", Type: domain.FieldTypeNumber, Aggregation: domain.AggregationAvg, Column: "annual_return"}
)
