// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"report-studio/internal/domain"
)

// ReportRepo persists report definitions in the SQLite metastore. The
// definition is stored as a JSON document; name, version and timestamps
// are lifted into columns for listing and uniqueness.
type ReportRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewReportRepo creates a new ReportRepo over a write/read pool pair.
func NewReportRepo(writeDB, readDB *sql.DB) *ReportRepo {
	return &ReportRepo{writeDB: writeDB, readDB: readDB}
}

// Save upserts the definition. This is the only place Version and
// UpdatedAt advance; in-memory edits never touch them. The stored (and
// returned) definition carries the bumped values.
func (r *ReportRepo) Save(ctx context.Context, def *domain.ReportDefinition) (*domain.ReportDefinition, error) {
	if def == nil {
		return nil, domain.ErrValidation("report definition is required")
	}
	if def.ID == "" {
		return nil, domain.ErrValidation("report id is required")
	}
	if def.Name == "" {
		return nil, domain.ErrValidation("report name is required")
	}

	saved := def.Clone()
	saved.Version++
	saved.UpdatedAt = time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = saved.UpdatedAt
	}

	doc, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("marshal report definition: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO reports (id, name, version, definition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			definition = excluded.definition,
			updated_at = excluded.updated_at`,
		saved.ID, saved.Name, saved.Version, string(doc), saved.CreatedAt, saved.UpdatedAt,
	)
	if err != nil {
		return nil, mapDBError(err)
	}

	return saved, nil
}

// GetByID loads a saved definition.
func (r *ReportRepo) GetByID(ctx context.Context, id string) (*domain.ReportDefinition, error) {
	var doc string
	err := r.readDB.QueryRowContext(ctx,
		`SELECT definition FROM reports WHERE id = ?`, id,
	).Scan(&doc)
	if err != nil {
		return nil, mapDBError(err)
	}

	var def domain.ReportDefinition
	if err := json.Unmarshal([]byte(doc), &def); err != nil {
		return nil, fmt.Errorf("unmarshal report definition %s: %w", id, err)
	}
	return &def, nil
}

// List returns summaries of all saved reports, most recently updated first.
func (r *ReportRepo) List(ctx context.Context) ([]domain.ReportSummary, error) {
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT id, name, version, updated_at FROM reports ORDER BY updated_at DESC, id`,
	)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.ReportSummary
	for rows.Next() {
		var s domain.ReportSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Version, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a saved report. Deleting an unknown id is a loud error.
func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	res, err := r.writeDB.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("report %s not found", id)
	}
	return nil
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}
