package composer

import (
	"context"

	"report-studio/internal/domain"
)

// DropPayload is what the user is dragging: a single field or an ordered
// multi-field bundle selected before the drag began.
type DropPayload struct {
	Fields []domain.Field
}

// DropTarget names where the payload landed. An empty SectionID means the
// canvas.
type DropTarget struct {
	SectionID string
}

// DropResult reports what a resolved drop did.
type DropResult struct {
	SectionID  string   // section the fields landed in (new or existing)
	Created    bool     // true when the drop created the section
	AddedIDs   []string // field ids actually added (duplicates skipped)
	Dispatched bool     // true when a query dispatch was triggered
}

// ResolveDrop turns a drop gesture into composition operations plus at most
// one query dispatch.
//
// Canvas drops are honored only while the report has no sections: the first
// drop creates a table section seeded with the payload. Once sections
// exist, new sections come from an explicit add-section action, never from
// dropping onto empty space.
//
// Drops onto an existing section auto-route every payload field, skip ids
// already present, and dispatch exactly one consolidated query built from
// the section's resulting field lists — never one dispatch per field.
func (s *Store) ResolveDrop(ctx context.Context, payload DropPayload, target DropTarget) (*DropResult, error) {
	if len(payload.Fields) == 0 {
		return nil, domain.ErrValidation("drop payload is empty")
	}

	if target.SectionID == "" {
		return s.resolveCanvasDrop(ctx, payload)
	}
	return s.resolveSectionDrop(ctx, payload, target.SectionID)
}

func (s *Store) resolveCanvasDrop(ctx context.Context, payload DropPayload) (*DropResult, error) {
	s.mu.Lock()
	if s.def == nil {
		s.mu.Unlock()
		return nil, domain.ErrValidation("no report loaded")
	}
	if len(s.def.Sections) > 0 {
		s.mu.Unlock()
		return nil, domain.ErrValidation("canvas drops are disabled once the report has sections")
	}

	sec, err := s.createSectionWithFieldLocked(payload.Fields[0], domain.SectionKindTable)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.recordMutationLocked("createSectionWithField")
	added := []string{payload.Fields[0].ID}

	for _, f := range payload.Fields[1:] {
		ok, err := s.addFieldLocked(sec.ID, f, RouteField(f))
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if ok {
			s.recordMutationLocked("addFieldToSection")
			added = append(added, f.ID)
		}
	}
	sectionID := sec.ID
	s.mu.Unlock()

	if err := s.DispatchQuery(ctx, sectionID); err != nil {
		return nil, err
	}
	return &DropResult{SectionID: sectionID, Created: true, AddedIDs: added, Dispatched: true}, nil
}

func (s *Store) resolveSectionDrop(ctx context.Context, payload DropPayload, sectionID string) (*DropResult, error) {
	s.mu.Lock()
	sec, err := s.sectionLocked(sectionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if sec.Query == nil {
		s.mu.Unlock()
		return nil, domain.ErrValidation("section %q (%s) does not accept field drops", sectionID, sec.Kind)
	}

	var added []string
	for _, f := range payload.Fields {
		ok, err := s.addFieldLocked(sectionID, f, RouteField(f))
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if ok {
			s.recordMutationLocked("addFieldToSection")
			added = append(added, f.ID)
		}
	}
	s.mu.Unlock()

	// One consolidated dispatch for the whole payload, duplicates included:
	// the query reflects the section's resulting field lists.
	if err := s.DispatchQuery(ctx, sectionID); err != nil {
		return nil, err
	}
	return &DropResult{SectionID: sectionID, AddedIDs: added, Dispatched: true}, nil
}
