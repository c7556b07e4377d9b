package domain

// Filter operators accepted in data queries. The executor whitelists these
// when rendering SQL; anything else is rejected at dispatch.
const (
	OpEquals      = "eq"
	OpNotEquals   = "neq"
	OpGreaterThan = "gt"
	OpLessThan    = "lt"
	OpGreaterEq   = "gte"
	OpLessEq      = "lte"
	OpContains    = "contains"
	OpIn          = "in"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// QueryFilter is one (field, operator, value) predicate.
type QueryFilter struct {
	ID      string      `json:"id"`
	FieldID string      `json:"fieldId"`
	Op      string      `json:"op"`
	Value   interface{} `json:"value"`
}

// SortSpec orders the result set by one field.
type SortSpec struct {
	FieldID   string `json:"fieldId"`
	Direction string `json:"direction"`
}

// DataQuery is the dimension/measure/filter/sort description owned by
// exactly one section. Dimensions and measures are disjoint, and insertion
// order is significant: it determines display column and axis order.
//
// Field ids are not checked against the catalog here — validation is
// deferred to query dispatch so fields can be assigned before the catalog
// finishes loading.
type DataQuery struct {
	Dimensions []string      `json:"dimensions"`
	Measures   []string      `json:"measures"`
	Filters    []QueryFilter `json:"filters,omitempty"`
	Sort       []SortSpec    `json:"sort,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	Offset     int           `json:"offset,omitempty"`
}

// NewDataQuery returns an empty query.
func NewDataQuery() *DataQuery {
	return &DataQuery{}
}

// HasField reports whether fieldID already appears in the dimension or
// measure list. Dedup is by field id, never by reference.
func (q *DataQuery) HasField(fieldID string) bool {
	for _, id := range q.Dimensions {
		if id == fieldID {
			return true
		}
	}
	for _, id := range q.Measures {
		if id == fieldID {
			return true
		}
	}
	return false
}

// FieldIDs returns dimensions followed by measures, preserving insertion order.
func (q *DataQuery) FieldIDs() []string {
	out := make([]string, 0, len(q.Dimensions)+len(q.Measures))
	out = append(out, q.Dimensions...)
	out = append(out, q.Measures...)
	return out
}

// IsEmpty reports whether the query selects no fields at all.
func (q *DataQuery) IsEmpty() bool {
	return len(q.Dimensions) == 0 && len(q.Measures) == 0
}

// Clone returns a deep copy of the query.
func (q *DataQuery) Clone() *DataQuery {
	if q == nil {
		return nil
	}
	cp := &DataQuery{
		Dimensions: append([]string(nil), q.Dimensions...),
		Measures:   append([]string(nil), q.Measures...),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if q.Filters != nil {
		cp.Filters = append([]QueryFilter(nil), q.Filters...)
	}
	if q.Sort != nil {
		cp.Sort = append([]SortSpec(nil), q.Sort...)
	}
	return cp
}

// QueryResult is the row set returned by a query executor, keyed back to a
// section by the caller for safe late-arrival discard.
type QueryResult struct {
	Rows            []map[string]interface{}
	ExecutionTimeMs int64
}
