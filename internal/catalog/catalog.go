// Package catalog provides the field catalog: the registry of fields a
// report author can drag onto the canvas. Definitions come from a YAML
// file or the built-in demo set; calculated fields carry Starlark
// formulas compiled at load time.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"report-studio/internal/domain"
)

// Service implements domain.FieldCatalog over an immutable field set.
type Service struct {
	name   string
	table  string
	order  []string
	fields map[string]domain.Field
	rt     *formulaRuntime
	logger *slog.Logger
}

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Name   string         `yaml:"name"`
	Table  string         `yaml:"table"`
	Fields []domain.Field `yaml:"fields"`
}

// NewService builds a catalog from in-memory definitions. Every field is
// validated and every formula compiled; a bad definition fails the whole
// catalog rather than surfacing later during authoring.
func NewService(name, table string, fields []domain.Field, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if table == "" {
		return nil, domain.ErrValidation("catalog %q must declare a source table", name)
	}

	s := &Service{
		name:   name,
		table:  table,
		fields: make(map[string]domain.Field, len(fields)),
		rt:     newFormulaRuntime(),
		logger: logger.With("component", "catalog"),
	}

	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.fields[f.ID]; dup {
			return nil, domain.ErrConflict("duplicate field id %q in catalog %q", f.ID, name)
		}
		if f.IsCalculated() {
			if err := s.rt.compile(f.ID, f.Formula); err != nil {
				return nil, err
			}
		}
		s.fields[f.ID] = f
		s.order = append(s.order, f.ID)
	}

	s.logger.Debug("catalog loaded", "name", name, "table", table, "fields", len(s.order))
	return s, nil
}

// LoadFile reads a catalog definition from a YAML file.
func LoadFile(path string, logger *slog.Logger) (*Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, domain.ErrValidation("parse catalog file %s: %v", path, err)
	}
	if file.Name == "" {
		file.Name = path
	}
	return NewService(file.Name, file.Table, file.Fields, logger)
}

// Name returns the catalog's display name.
func (s *Service) Name() string { return s.name }

// Table returns the source table queries against this catalog read from.
func (s *Service) Table() string { return s.table }

// ListFields returns all fields in their declaration order.
func (s *Service) ListFields(_ context.Context) ([]domain.Field, error) {
	out := make([]domain.Field, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.fields[id])
	}
	return out, nil
}

// GetField returns the field with the given id.
func (s *Service) GetField(_ context.Context, id string) (*domain.Field, error) {
	f, ok := s.fields[id]
	if !ok {
		return nil, domain.ErrNotFound("field %q not found in catalog %q", id, s.name)
	}
	return &f, nil
}

// EvalFormula evaluates a calculated field's formula against one result
// row. Row keys are field ids; the formula sees them as variables.
func (s *Service) EvalFormula(field *domain.Field, row map[string]interface{}) (interface{}, error) {
	if !field.IsCalculated() {
		return nil, domain.ErrValidation("field %q has no formula", field.ID)
	}
	return s.rt.eval(field.ID, field.Formula, row)
}
