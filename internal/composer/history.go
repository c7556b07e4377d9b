package composer

import "report-studio/internal/domain"

// history is a bounded undo/redo log of deep report snapshots plus a cursor.
// entries[cursor] always reflects a fully-applied mutation: snapshots are
// taken strictly after an operation completes, never before.
type history struct {
	entries []*domain.ReportDefinition
	cursor  int
	limit   int
}

func newHistory(limit int) *history {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &history{limit: limit}
}

// reset discards all entries and seeds the log with a single snapshot.
func (h *history) reset(def *domain.ReportDefinition) {
	h.entries = []*domain.ReportDefinition{def.Clone()}
	h.cursor = 0
}

// snapshot truncates the redo tail, appends a deep copy of def, and evicts
// the oldest entries past the limit, re-basing the cursor accordingly.
func (h *history) snapshot(def *domain.ReportDefinition) {
	h.entries = append(h.entries[:h.cursor+1], def.Clone())
	h.cursor = len(h.entries) - 1

	if evict := len(h.entries) - h.limit; evict > 0 {
		h.entries = append([]*domain.ReportDefinition(nil), h.entries[evict:]...)
		h.cursor -= evict
		if h.cursor < 0 {
			h.cursor = 0
		}
	}
}

// undo steps the cursor back and returns a deep copy of that entry, or nil
// at the boundary. Boundary hits are no-ops, not errors.
func (h *history) undo() *domain.ReportDefinition {
	if h.cursor <= 0 {
		return nil
	}
	h.cursor--
	return h.entries[h.cursor].Clone()
}

// redo steps the cursor forward and returns a deep copy of that entry, or
// nil at the boundary.
func (h *history) redo() *domain.ReportDefinition {
	if h.cursor >= len(h.entries)-1 {
		return nil
	}
	h.cursor++
	return h.entries[h.cursor].Clone()
}

func (h *history) len() int { return len(h.entries) }
