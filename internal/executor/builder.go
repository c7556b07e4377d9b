// Package executor turns a section's data query into SQL and runs it
// against DuckDB. Field-existence validation happens here, at dispatch
// time: the composition engine accepts any field id and the builder is
// where an unknown one becomes a loud ValidationError.
package executor

import (
	"fmt"
	"strings"

	"report-studio/internal/domain"
)

// Plan is a compiled query: the SQL text, its bind arguments, and the
// calculated fields to evaluate per row after scanning.
type Plan struct {
	SQL        string
	Args       []interface{}
	Calculated []domain.Field
}

// Builder compiles domain.DataQuery values against one catalog table.
type Builder struct {
	table  string
	fields map[string]domain.Field
}

// NewBuilder creates a builder over the given field definitions.
func NewBuilder(table string, fields []domain.Field) *Builder {
	byID := make(map[string]domain.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}
	return &Builder{table: table, fields: byID}
}

var sqlOperators = map[string]string{
	domain.OpEquals:      "=",
	domain.OpNotEquals:   "<>",
	domain.OpGreaterThan: ">",
	domain.OpLessThan:    "<",
	domain.OpGreaterEq:   ">=",
	domain.OpLessEq:      "<=",
}

// Build compiles the query. The SELECT list preserves assignment order:
// dimensions first, then measures, each aliased to its field id. Measures
// are wrapped in their aggregation; the query groups by the dimension
// columns whenever a measure is present.
func (b *Builder) Build(q *domain.DataQuery) (*Plan, error) {
	if q == nil || q.IsEmpty() {
		return nil, domain.ErrValidation("query has no fields")
	}

	plan := &Plan{}
	var selects []string
	var groupBy []string
	hasMeasure := false

	for _, id := range q.Dimensions {
		f, err := b.resolve(id)
		if err != nil {
			return nil, err
		}
		if f.IsCalculated() {
			plan.Calculated = append(plan.Calculated, *f)
			continue
		}
		col := quoteIdent(f.Column)
		selects = append(selects, fmt.Sprintf("%s AS %s", col, quoteIdent(f.ID)))
		groupBy = append(groupBy, col)
	}

	for _, id := range q.Measures {
		f, err := b.resolve(id)
		if err != nil {
			return nil, err
		}
		if f.IsCalculated() {
			plan.Calculated = append(plan.Calculated, *f)
			continue
		}
		expr, err := aggregateExpr(f)
		if err != nil {
			return nil, err
		}
		selects = append(selects, fmt.Sprintf("%s AS %s", expr, quoteIdent(f.ID)))
		hasMeasure = true
	}

	if len(selects) == 0 {
		return nil, domain.ErrValidation("query selects no physical columns")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(b.table))

	where, args, err := b.buildWhere(q.Filters)
	if err != nil {
		return nil, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	plan.Args = args

	if hasMeasure && len(groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groupBy, ", "))
	}

	orderBy, err := b.buildOrderBy(q)
	if err != nil {
		return nil, err
	}
	if orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(orderBy)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Offset)
	}

	plan.SQL = sb.String()
	return plan, nil
}

func (b *Builder) resolve(id string) (*domain.Field, error) {
	f, ok := b.fields[id]
	if !ok {
		return nil, domain.ErrValidation("unknown field %q in query", id)
	}
	return &f, nil
}

func (b *Builder) buildWhere(filters []domain.QueryFilter) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	var clauses []string
	var args []interface{}
	for _, flt := range filters {
		f, err := b.resolve(flt.FieldID)
		if err != nil {
			return "", nil, err
		}
		if f.IsCalculated() {
			return "", nil, domain.ErrValidation("cannot filter on calculated field %q", f.ID)
		}
		col := quoteIdent(f.Column)

		switch flt.Op {
		case domain.OpContains:
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, fmt.Sprintf("%%%v%%", flt.Value))
		case domain.OpIn:
			vals, err := inValues(flt.Value)
			if err != nil {
				return "", nil, domain.ErrValidation("filter on %q: %v", f.ID, err)
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col, placeholders))
			args = append(args, vals...)
		default:
			op, ok := sqlOperators[flt.Op]
			if !ok {
				return "", nil, domain.ErrValidation("unsupported filter operator %q", flt.Op)
			}
			clauses = append(clauses, fmt.Sprintf("%s %s ?", col, op))
			args = append(args, flt.Value)
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

func (b *Builder) buildOrderBy(q *domain.DataQuery) (string, error) {
	if len(q.Sort) == 0 {
		return "", nil
	}

	var terms []string
	for _, s := range q.Sort {
		if !q.HasField(s.FieldID) {
			return "", domain.ErrValidation("sort field %q is not part of the query", s.FieldID)
		}
		f, err := b.resolve(s.FieldID)
		if err != nil {
			return "", err
		}
		if f.IsCalculated() {
			return "", domain.ErrValidation("cannot sort by calculated field %q", f.ID)
		}
		dir := "ASC"
		if s.Direction == domain.SortDesc {
			dir = "DESC"
		}
		terms = append(terms, quoteIdent(f.ID)+" "+dir)
	}
	return strings.Join(terms, ", "), nil
}

func aggregateExpr(f *domain.Field) (string, error) {
	col := quoteIdent(f.Column)
	switch f.Aggregation {
	case domain.AggregationSum:
		return "sum(" + col + ")", nil
	case domain.AggregationAvg:
		return "avg(" + col + ")", nil
	case domain.AggregationCount:
		return "count(" + col + ")", nil
	case domain.AggregationMin:
		return "min(" + col + ")", nil
	case domain.AggregationMax:
		return "max(" + col + ")", nil
	case domain.AggregationDistinct:
		return "count(DISTINCT " + col + ")", nil
	case "", domain.AggregationNone:
		return col, nil
	default:
		return "", domain.ErrValidation("field %q has unsupported aggregation %q", f.ID, f.Aggregation)
	}
}

func inValues(v interface{}) ([]interface{}, error) {
	switch vals := v.(type) {
	case []interface{}:
		if len(vals) == 0 {
			return nil, fmt.Errorf("IN filter requires at least one value")
		}
		return vals, nil
	case []string:
		if len(vals) == 0 {
			return nil, fmt.Errorf("IN filter requires at least one value")
		}
		out := make([]interface{}, len(vals))
		for i, s := range vals {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("IN filter value must be a list, got %T", v)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
