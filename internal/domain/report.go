package domain

import "time"

// Section kinds. A section's kind is fixed at creation and never changed in
// place; replacing a table with a chart means removing one section and
// adding another.
const (
	SectionKindTable     = "table"
	SectionKindChart     = "chart"
	SectionKindText      = "text"
	SectionKindContainer = "container"
	SectionKindPivot     = "pivot"
)

// ValidSectionKind reports whether kind names a known section kind.
func ValidSectionKind(kind string) bool {
	switch kind {
	case SectionKindTable, SectionKindChart, SectionKindText, SectionKindContainer, SectionKindPivot:
		return true
	}
	return false
}

// KindBearsQuery reports whether sections of the given kind own a data query.
func KindBearsQuery(kind string) bool {
	switch kind {
	case SectionKindTable, SectionKindChart, SectionKindPivot:
		return true
	}
	return false
}

// Layout places a section on the grid. Units are grid cells.
type Layout struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	W    int `json:"w"`
	H    int `json:"h"`
	MinW int `json:"minW,omitempty"`
	MinH int `json:"minH,omitempty"`
	MaxW int `json:"maxW,omitempty"`
	MaxH int `json:"maxH,omitempty"`
}

// Validate checks the layout invariants: w >= 1, h >= 1, coordinates >= 0.
func (l Layout) Validate() error {
	if l.W < 1 || l.H < 1 {
		return ErrValidation("section size must be at least 1x1 grid unit (got %dx%d)", l.W, l.H)
	}
	if l.X < 0 || l.Y < 0 {
		return ErrValidation("section coordinates must be non-negative (got %d,%d)", l.X, l.Y)
	}
	return nil
}

// LayoutPatch carries a partial layout update. Nil fields are left unchanged.
type LayoutPatch struct {
	X    *int `json:"x,omitempty"`
	Y    *int `json:"y,omitempty"`
	W    *int `json:"w,omitempty"`
	H    *int `json:"h,omitempty"`
	MinW *int `json:"minW,omitempty"`
	MinH *int `json:"minH,omitempty"`
	MaxW *int `json:"maxW,omitempty"`
	MaxH *int `json:"maxH,omitempty"`
}

// Apply merges the patch into the layout. Grid-collision resolution is the
// rendering layer's job; the model only stores coordinates.
func (p LayoutPatch) Apply(l *Layout) {
	if p.X != nil {
		l.X = *p.X
	}
	if p.Y != nil {
		l.Y = *p.Y
	}
	if p.W != nil {
		l.W = *p.W
	}
	if p.H != nil {
		l.H = *p.H
	}
	if p.MinW != nil {
		l.MinW = *p.MinW
	}
	if p.MinH != nil {
		l.MinH = *p.MinH
	}
	if p.MaxW != nil {
		l.MaxW = *p.MaxW
	}
	if p.MaxH != nil {
		l.MaxH = *p.MaxH
	}
}

// ChartConfig holds chart-kind presentation settings.
type ChartConfig struct {
	ChartType  string   `json:"chartType"`
	Title      string   `json:"title,omitempty"`
	XAxisLabel string   `json:"xAxisLabel,omitempty"`
	YAxisLabel string   `json:"yAxisLabel,omitempty"`
	ShowLegend bool     `json:"showLegend,omitempty"`
	Colors     []string `json:"colors,omitempty"`
}

// TableConfig holds table/pivot-kind presentation settings.
type TableConfig struct {
	PageSize   int  `json:"pageSize,omitempty"`
	ShowTotals bool `json:"showTotals,omitempty"`
	DenseRows  bool `json:"denseRows,omitempty"`
}

// Section is a placeable unit of report content. Children are owned values,
// not references, so cycles are structurally impossible.
type Section struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	Title       string       `json:"title,omitempty"`
	Layout      Layout       `json:"layout"`
	Query       *DataQuery   `json:"query,omitempty"`
	Content     string       `json:"content,omitempty"`
	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`
	TableConfig *TableConfig `json:"tableConfig,omitempty"`
	Children    []*Section   `json:"children,omitempty"`
}

// NewSection constructs a section of the given kind with a fresh id,
// initializing an empty data query for query-bearing kinds.
func NewSection(kind string, layout Layout) (*Section, error) {
	if !ValidSectionKind(kind) {
		return nil, ErrValidation("unknown section kind %q", kind)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	s := &Section{
		ID:     NewID(),
		Kind:   kind,
		Layout: layout,
	}
	if KindBearsQuery(kind) {
		s.Query = NewDataQuery()
	}
	return s, nil
}

// Clone returns a deep copy of the section and its subtree.
func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Query = s.Query.Clone()
	if s.ChartConfig != nil {
		cc := *s.ChartConfig
		cc.Colors = append([]string(nil), s.ChartConfig.Colors...)
		cp.ChartConfig = &cc
	}
	if s.TableConfig != nil {
		tc := *s.TableConfig
		cp.TableConfig = &tc
	}
	if s.Children != nil {
		cp.Children = make([]*Section, len(s.Children))
		for i, child := range s.Children {
			cp.Children[i] = child.Clone()
		}
	}
	return &cp
}

// Parameter is a report-level input users can bind filters to.
type Parameter struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Default interface{} `json:"default,omitempty"`
}

// DataSourceRef names a data source a report reads from.
type DataSourceRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Table string `json:"table"`
}

// ReportDefinition is the root aggregate: the full authored state of one
// report. Version increments only on an explicit save — in-memory edits
// never touch it.
type ReportDefinition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Version     int             `json:"version"`
	Sections    []*Section      `json:"sections"`
	Filters     []QueryFilter   `json:"filters,omitempty"`
	Parameters  []Parameter     `json:"parameters,omitempty"`
	DataSources []DataSourceRef `json:"dataSources,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy of the definition. History snapshots and
// undo/redo restores go through this; the observable contract is full
// structural equality, not a particular copying mechanism.
func (d *ReportDefinition) Clone() *ReportDefinition {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Sections = make([]*Section, len(d.Sections))
	for i, s := range d.Sections {
		cp.Sections[i] = s.Clone()
	}
	if d.Filters != nil {
		cp.Filters = append([]QueryFilter(nil), d.Filters...)
	}
	if d.Parameters != nil {
		cp.Parameters = append([]Parameter(nil), d.Parameters...)
	}
	if d.DataSources != nil {
		cp.DataSources = append([]DataSourceRef(nil), d.DataSources...)
	}
	return &cp
}

// FindSection walks the owned tree and returns the section with the given
// id, or nil when absent.
func (d *ReportDefinition) FindSection(id string) *Section {
	return findSection(d.Sections, id)
}

func findSection(sections []*Section, id string) *Section {
	for _, s := range sections {
		if s.ID == id {
			return s
		}
		if found := findSection(s.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// DetachSection removes the section with the given id from wherever it
// lives — the root list or a container's children — and returns it. Returns
// nil when the id does not resolve. The detached subtree keeps its children.
func (d *ReportDefinition) DetachSection(id string) *Section {
	detached, rest := detachSection(d.Sections, id)
	if detached != nil {
		d.Sections = rest
	}
	return detached
}

func detachSection(sections []*Section, id string) (*Section, []*Section) {
	for i, s := range sections {
		if s.ID == id {
			return s, append(sections[:i:i], sections[i+1:]...)
		}
		if detached, rest := detachSection(s.Children, id); detached != nil {
			s.Children = rest
			return detached, sections
		}
	}
	return nil, sections
}

// WalkSections visits every section in the tree depth-first, parents before
// children, until fn returns false.
func (d *ReportDefinition) WalkSections(fn func(*Section) bool) {
	walkSections(d.Sections, fn)
}

func walkSections(sections []*Section, fn func(*Section) bool) bool {
	for _, s := range sections {
		if !fn(s) {
			return false
		}
		if !walkSections(s.Children, fn) {
			return false
		}
	}
	return true
}
