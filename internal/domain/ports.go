package domain

import (
	"context"
	"time"
)

// FieldCatalog is the read-only registry of fields available for report
// authoring. Implemented by catalog.Service.
type FieldCatalog interface {
	ListFields(ctx context.Context) ([]Field, error)
	GetField(ctx context.Context, id string) (*Field, error)
}

// QueryExecutor runs a section's data query and returns its row set. The
// engine only constructs and dispatches queries; execution is the
// collaborator's concern. Implemented by executor.DuckDBExecutor.
type QueryExecutor interface {
	Execute(ctx context.Context, sectionID string, q *DataQuery) (*QueryResult, error)
}

// ReportSummary is the listing projection of a saved report.
type ReportSummary struct {
	ID        string
	Name      string
	Version   int
	UpdatedAt time.Time
}

// ReportRepository persists report definitions. Save is called on explicit
// user save only, never per mutation, and is where Version and UpdatedAt
// are bumped. Implemented by repository.ReportRepo.
type ReportRepository interface {
	Save(ctx context.Context, def *ReportDefinition) (*ReportDefinition, error)
	GetByID(ctx context.Context, id string) (*ReportDefinition, error)
	List(ctx context.Context) ([]ReportSummary, error)
	Delete(ctx context.Context, id string) error
}
