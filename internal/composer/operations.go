package composer

import "report-studio/internal/domain"

// FieldTarget names which query list a field lands in.
type FieldTarget string

// Field targets.
const (
	TargetDimensions FieldTarget = "dimensions"
	TargetMeasures   FieldTarget = "measures"
)

// RouteField returns the target list for a field according to the single
// classification rule: string-typed or unaggregated fields are dimensions,
// everything else is a measure.
func RouteField(f domain.Field) FieldTarget {
	if f.IsDimension() {
		return TargetDimensions
	}
	return TargetMeasures
}

// AddSectionRequest holds parameters for AddSection.
type AddSectionRequest struct {
	Kind     string
	Layout   domain.Layout
	ParentID string // "" = root list; otherwise must resolve to a container
}

// SectionPatch carries a partial section update for UpdateSection. Nil
// fields are left unchanged. The section's kind is deliberately absent:
// kind is fixed at creation. Callers are responsible for not crossing kind
// boundaries (e.g. setting ChartConfig on a table section).
type SectionPatch struct {
	Title       *string
	Content     *string
	ChartConfig *domain.ChartConfig
	TableConfig *domain.TableConfig
}

// AddSection appends a new section with a fresh id to the root list or to
// the named parent's children, initializes an empty data query for
// query-bearing kinds, and selects the new section. A parent id that does
// not resolve is a loud failure, never a silent fallback to the root list.
func (s *Store) AddSection(req AddSectionRequest) (*domain.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.addSectionLocked(req)
	if err != nil {
		return nil, err
	}
	s.recordMutationLocked("addSection")
	return sec, nil
}

func (s *Store) addSectionLocked(req AddSectionRequest) (*domain.Section, error) {
	if s.def == nil {
		return nil, domain.ErrValidation("no report loaded")
	}

	var parent *domain.Section
	if req.ParentID != "" {
		parent = s.def.FindSection(req.ParentID)
		if parent == nil {
			return nil, domain.ErrNotFound("parent section %q not found", req.ParentID)
		}
		if parent.Kind != domain.SectionKindContainer {
			return nil, domain.ErrValidation("parent section %q is a %s, only containers nest children", req.ParentID, parent.Kind)
		}
	}

	sec, err := domain.NewSection(req.Kind, req.Layout)
	if err != nil {
		return nil, err
	}

	if parent != nil {
		parent.Children = append(parent.Children, sec)
	} else {
		s.def.Sections = append(s.def.Sections, sec)
	}
	s.selected = sec.ID
	return sec, nil
}

// RemoveSection detaches the section from wherever it lives and discards it
// together with its children. Removing the selected section clears
// selection; in-flight query results for the removed subtree are superseded.
func (s *Store) RemoveSection(sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.def == nil {
		return domain.ErrValidation("no report loaded")
	}
	removed := s.def.DetachSection(sectionID)
	if removed == nil {
		return domain.ErrNotFound("section %q not found", sectionID)
	}

	walkRemoved(removed, func(sec *domain.Section) {
		if s.selected == sec.ID {
			s.selected = ""
		}
		delete(s.previews, sec.ID)
		s.queryGen[sec.ID]++
	})
	s.recordMutationLocked("removeSection")
	return nil
}

func walkRemoved(sec *domain.Section, fn func(*domain.Section)) {
	fn(sec)
	for _, child := range sec.Children {
		walkRemoved(child, fn)
	}
}

// UpdateSectionLayout merges the patch into the section's layout. Bounds
// are not re-validated here: grid-collision resolution belongs to the
// rendering layer, not the model.
func (s *Store) UpdateSectionLayout(sectionID string, patch domain.LayoutPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.sectionLocked(sectionID)
	if err != nil {
		return err
	}
	patch.Apply(&sec.Layout)
	s.recordMutationLocked("updateSectionLayout")
	return nil
}

// AddFieldToSection appends the field to the named list unless its id is
// already present in either list. Duplicate adds are no-ops, not errors,
// and produce no history entry. Returns whether the field was added.
func (s *Store) AddFieldToSection(sectionID string, field domain.Field, target FieldTarget) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.addFieldLocked(sectionID, field, target)
	if err != nil {
		return false, err
	}
	if added {
		s.recordMutationLocked("addFieldToSection")
	}
	return added, nil
}

func (s *Store) addFieldLocked(sectionID string, field domain.Field, target FieldTarget) (bool, error) {
	sec, err := s.sectionLocked(sectionID)
	if err != nil {
		return false, err
	}
	if sec.Query == nil {
		return false, domain.ErrValidation("section %q (%s) does not carry a data query", sectionID, sec.Kind)
	}
	if field.ID == "" {
		return false, domain.ErrValidation("field id is required")
	}
	// Dedup across both lists keeps dimensions and measures disjoint.
	if sec.Query.HasField(field.ID) {
		return false, nil
	}
	switch target {
	case TargetDimensions:
		sec.Query.Dimensions = append(sec.Query.Dimensions, field.ID)
	case TargetMeasures:
		sec.Query.Measures = append(sec.Query.Measures, field.ID)
	default:
		return false, domain.ErrValidation("invalid field target %q", target)
	}
	return true, nil
}

// RemoveFieldFromSection removes the first match from the named list.
// Removing a non-present field is a no-op.
func (s *Store) RemoveFieldFromSection(sectionID, fieldID string, target FieldTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.sectionLocked(sectionID)
	if err != nil {
		return err
	}
	if sec.Query == nil {
		return domain.ErrValidation("section %q (%s) does not carry a data query", sectionID, sec.Kind)
	}

	var list *[]string
	switch target {
	case TargetDimensions:
		list = &sec.Query.Dimensions
	case TargetMeasures:
		list = &sec.Query.Measures
	default:
		return domain.ErrValidation("invalid field target %q", target)
	}

	for i, id := range *list {
		if id == fieldID {
			*list = append((*list)[:i:i], (*list)[i+1:]...)
			s.recordMutationLocked("removeFieldFromSection")
			return nil
		}
	}
	return nil
}

// AddFilterToSection appends a filter to the section's query, assigning a
// fresh id when the caller left it empty.
func (s *Store) AddFilterToSection(sectionID string, filter domain.QueryFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.sectionLocked(sectionID)
	if err != nil {
		return err
	}
	if sec.Query == nil {
		return domain.ErrValidation("section %q (%s) does not carry a data query", sectionID, sec.Kind)
	}
	if filter.FieldID == "" {
		return domain.ErrValidation("filter field id is required")
	}
	if filter.ID == "" {
		filter.ID = domain.NewID()
	}
	sec.Query.Filters = append(sec.Query.Filters, filter)
	s.recordMutationLocked("addFilterToSection")
	return nil
}

// UpdateSection shallow-merges the patch into the section. Used for both
// kind-specific config and generic edits.
func (s *Store) UpdateSection(sectionID string, patch SectionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateSectionLocked(sectionID, patch); err != nil {
		return err
	}
	s.recordMutationLocked("updateSection")
	return nil
}

func (s *Store) updateSectionLocked(sectionID string, patch SectionPatch) error {
	sec, err := s.sectionLocked(sectionID)
	if err != nil {
		return err
	}
	if patch.Title != nil {
		sec.Title = *patch.Title
	}
	if patch.Content != nil {
		sec.Content = *patch.Content
	}
	if patch.ChartConfig != nil {
		cc := *patch.ChartConfig
		cc.Colors = append([]string(nil), patch.ChartConfig.Colors...)
		sec.ChartConfig = &cc
	}
	if patch.TableConfig != nil {
		tc := *patch.TableConfig
		sec.TableConfig = &tc
	}
	return nil
}

// CreateSectionWithField is the composite operation behind a drop onto
// empty canvas: it adds a root section of the given kind and assigns the
// field to its auto-routed target, atomically from the caller's point of
// view (one history entry). Returns the new section so callers can chain
// further field additions and dispatch a query.
func (s *Store) CreateSectionWithField(field domain.Field, kind string) (*domain.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.createSectionWithFieldLocked(field, kind)
	if err != nil {
		return nil, err
	}
	s.recordMutationLocked("createSectionWithField")
	return sec, nil
}

func (s *Store) createSectionWithFieldLocked(field domain.Field, kind string) (*domain.Section, error) {
	if !domain.KindBearsQuery(kind) {
		return nil, domain.ErrValidation("cannot create a %s section from a field drop", kind)
	}
	sec, err := s.addSectionLocked(AddSectionRequest{Kind: kind, Layout: defaultLayoutFor(kind)})
	if err != nil {
		return nil, err
	}
	if _, err := s.addFieldLocked(sec.ID, field, RouteField(field)); err != nil {
		// Roll the section back so a failed composite leaves no trace.
		s.def.DetachSection(sec.ID)
		if s.selected == sec.ID {
			s.selected = ""
		}
		return nil, err
	}
	return sec, nil
}

func defaultLayoutFor(kind string) domain.Layout {
	switch kind {
	case domain.SectionKindChart:
		return domain.Layout{W: 6, H: 4}
	case domain.SectionKindPivot:
		return domain.Layout{W: 6, H: 5}
	default:
		return domain.Layout{W: 6, H: 4}
	}
}

// sectionLocked resolves a section id or returns a NotFoundError. All
// operations fail loudly on unknown ids and leave the store unchanged.
func (s *Store) sectionLocked(sectionID string) (*domain.Section, error) {
	if s.def == nil {
		return nil, domain.ErrValidation("no report loaded")
	}
	sec := s.def.FindSection(sectionID)
	if sec == nil {
		return nil, domain.ErrNotFound("section %q not found", sectionID)
	}
	return sec, nil
}
