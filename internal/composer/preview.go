package composer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"report-studio/internal/domain"
)

// PreviewState holds the latest query result (or failure) for one section.
// Transient: never persisted, never snapshotted. Query failures land here
// and never roll back the report model.
type PreviewState struct {
	Loading         bool
	Rows            []map[string]interface{}
	ExecutionTimeMs int64
	Err             string
	UpdatedAt       time.Time
}

// Preview returns a copy of the section's preview state.
func (s *Store) Preview(sectionID string) (PreviewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.previews[sectionID]
	if !ok {
		return PreviewState{}, false
	}
	return *st, true
}

// DispatchQuery sends the section's current query to the executor on a
// separate goroutine and returns immediately. The result is applied only if
// the section still exists and no later dispatch superseded this one; late
// arrivals are discarded by section id and generation.
func (s *Store) DispatchQuery(ctx context.Context, sectionID string) error {
	gen, q, err := s.beginDispatch(sectionID)
	if err != nil {
		return err
	}
	go s.runQuery(ctx, sectionID, gen, q)
	return nil
}

// RefreshAll re-dispatches every query-bearing, non-empty section query and
// waits for all of them. Per-section failures are isolated to that
// section's preview state; the only returned error is context cancellation.
func (s *Store) RefreshAll(ctx context.Context) error {
	s.mu.Lock()
	var ids []string
	if s.def != nil {
		s.def.WalkSections(func(sec *domain.Section) bool {
			if sec.Query != nil && !sec.Query.IsEmpty() {
				ids = append(ids, sec.ID)
			}
			return true
		})
	}
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		gen, q, err := s.beginDispatch(id)
		if err != nil {
			continue
		}
		g.Go(func() error {
			s.runQuery(ctx, id, gen, q)
			return ctx.Err()
		})
	}
	return g.Wait()
}

// beginDispatch validates the section, bumps its query generation, marks
// the preview loading, and hands back a query clone safe to execute without
// holding the lock.
func (s *Store) beginDispatch(sectionID string) (uint64, *domain.DataQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, err := s.sectionLocked(sectionID)
	if err != nil {
		return 0, nil, err
	}
	if sec.Query == nil {
		return 0, nil, domain.ErrValidation("section %q (%s) does not carry a data query", sectionID, sec.Kind)
	}

	s.queryGen[sectionID]++
	gen := s.queryGen[sectionID]

	st, ok := s.previews[sectionID]
	if !ok {
		st = &PreviewState{}
		s.previews[sectionID] = st
	}
	st.Loading = true
	return gen, sec.Query.Clone(), nil
}

func (s *Store) runQuery(ctx context.Context, sectionID string, gen uint64, q *domain.DataQuery) {
	res, err := s.executor.Execute(ctx, sectionID, q)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A section removed or superseded mid-flight swallows its own result.
	if s.def == nil || s.def.FindSection(sectionID) == nil {
		s.logger.Debug("discarding result for removed section", "section_id", sectionID)
		return
	}
	if s.queryGen[sectionID] != gen {
		s.logger.Debug("discarding superseded query result", "section_id", sectionID, "generation", gen)
		return
	}

	st, ok := s.previews[sectionID]
	if !ok {
		st = &PreviewState{}
		s.previews[sectionID] = st
	}
	st.Loading = false
	st.UpdatedAt = time.Now().UTC()
	if err != nil {
		st.Err = err.Error()
		st.Rows = nil
		st.ExecutionTimeMs = 0
		s.logger.Warn("query failed", "section_id", sectionID, "error", err)
		return
	}
	st.Err = ""
	st.Rows = res.Rows
	st.ExecutionTimeMs = res.ExecutionTimeMs
}
