package domain

// Field data types.
const (
	FieldTypeString  = "string"
	FieldTypeNumber  = "number"
	FieldTypeDate    = "date"
	FieldTypeBoolean = "boolean"
)

// Field aggregation modes.
const (
	AggregationNone     = "none"
	AggregationSum      = "sum"
	AggregationAvg      = "avg"
	AggregationCount    = "count"
	AggregationMin      = "min"
	AggregationMax      = "max"
	AggregationDistinct = "distinct"
)

// FormatRules holds display formatting metadata for a field.
type FormatRules struct {
	Pattern   string `yaml:"pattern,omitempty"`
	Precision int    `yaml:"precision,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Suffix    string `yaml:"suffix,omitempty"`
}

// Field describes one entry in the field catalog. Fields are read-only to
// the composition engine; the catalog owns their lifecycle.
type Field struct {
	ID          string       `yaml:"id"`
	DisplayName string       `yaml:"display_name"`
	Type        string       `yaml:"type"`
	Aggregation string       `yaml:"aggregation"`
	Column      string       `yaml:"column,omitempty"`
	Formula     string       `yaml:"formula,omitempty"`
	Format      *FormatRules `yaml:"format,omitempty"`
}

// IsDimension reports whether the field routes into a query's dimension
// list. A field is a dimension when its type is string or it carries no
// aggregation; every auto-routing path (single drop, bundle drop, section
// creation) goes through this method so the classification never diverges.
func (f *Field) IsDimension() bool {
	return f.Type == FieldTypeString || f.Aggregation == "" || f.Aggregation == AggregationNone
}

// IsCalculated reports whether the field derives its value from a formula.
func (f *Field) IsCalculated() bool {
	return f.Formula != ""
}

// Validate checks that the field definition is well-formed.
func (f *Field) Validate() error {
	if f.ID == "" {
		return ErrValidation("field id is required")
	}
	switch f.Type {
	case FieldTypeString, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean:
	default:
		return ErrValidation("field %q has invalid type %q", f.ID, f.Type)
	}
	switch f.Aggregation {
	case "", AggregationNone, AggregationSum, AggregationAvg, AggregationCount, AggregationMin, AggregationMax, AggregationDistinct:
	default:
		return ErrValidation("field %q has invalid aggregation %q", f.ID, f.Aggregation)
	}
	if f.Column == "" && f.Formula == "" {
		return ErrValidation("field %q must declare a column or a formula", f.ID)
	}
	return nil
}
