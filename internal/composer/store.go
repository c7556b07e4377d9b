// Package composer implements the report composition engine: the in-memory
// report model store, its mutation operations, bounded undo/redo history,
// drag/drop resolution, and debounced property editing.
package composer

import (
	"log/slog"
	"sync"
	"time"

	"report-studio/internal/domain"
)

// Engine tunables. Both can be overridden through Options.
const (
	DefaultHistoryLimit     = 50
	DefaultDebounceInterval = 500 * time.Millisecond
)

// Options configures a Store.
type Options struct {
	HistoryLimit     int           // max retained undo snapshots (default 50)
	DebounceInterval time.Duration // quiet period for debounced edits (default 500ms)
}

// Store owns the single current ReportDefinition plus transient UI state
// (selection, drag state, per-section preview data). All mutation goes
// through the composition operations in operations.go; reads go through
// Current. Debounce timers and query results arrive on other goroutines, so
// the store guards itself with a mutex.
type Store struct {
	mu       sync.Mutex
	def      *domain.ReportDefinition
	hist     *history
	dirty    bool
	selected string
	dragging []string

	previews map[string]*PreviewState
	queryGen map[string]uint64

	executor domain.QueryExecutor
	interval time.Duration
	logger   *slog.Logger
}

// InitRequest holds parameters for creating a fresh report.
type InitRequest struct {
	Name       string
	DataSource *domain.DataSourceRef
}

// NewStore creates a Store with no report loaded. Call Initialize or Load
// before applying operations.
func NewStore(exec domain.QueryExecutor, logger *slog.Logger, opts Options) *Store {
	if opts.HistoryLimit < 1 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.DebounceInterval <= 0 {
		opts.DebounceInterval = DefaultDebounceInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		hist:     newHistory(opts.HistoryLimit),
		previews: map[string]*PreviewState{},
		queryGen: map[string]uint64{},
		executor: exec,
		interval: opts.DebounceInterval,
		logger:   logger.With("component", "composer"),
	}
}

// Initialize creates a fresh ReportDefinition with no sections, version 1,
// and a default data-source reference, and resets history to a single entry
// containing this state. No prior state is preserved.
func (s *Store) Initialize(req InitRequest) *domain.ReportDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := req.Name
	if name == "" {
		name = "Untitled Report"
	}
	ds := domain.DataSourceRef{ID: domain.NewID(), Name: "default", Table: "main"}
	if req.DataSource != nil {
		ds = *req.DataSource
	}

	now := time.Now().UTC()
	s.def = &domain.ReportDefinition{
		ID:          domain.NewID(),
		Name:        name,
		Version:     1,
		Sections:    []*domain.Section{},
		DataSources: []domain.DataSourceRef{ds},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.resetTransientLocked()
	s.hist.reset(s.def)
	s.dirty = false
	s.logger.Info("report initialized", "report_id", s.def.ID, "name", name)
	return s.def
}

// Load replaces the current definition wholesale (used when opening a saved
// report), resets history to one entry, and clears selection and previews.
func (s *Store) Load(def *domain.ReportDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.def = def.Clone()
	s.resetTransientLocked()
	s.hist.reset(s.def)
	s.dirty = false
	s.logger.Info("report loaded", "report_id", s.def.ID, "version", s.def.Version)
}

func (s *Store) resetTransientLocked() {
	s.selected = ""
	s.dragging = nil
	s.previews = map[string]*PreviewState{}
	// Generations are kept so results dispatched against a previous report
	// cannot land after a load.
	for id := range s.queryGen {
		s.queryGen[id]++
	}
}

// Current returns the live ReportDefinition. This is the read path for
// rendering; callers must not mutate it directly.
func (s *Store) Current() *domain.ReportDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.def
}

// Dirty reports whether unsaved structural edits exist.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkSaved records that the definition was persisted: the saved identity
// (version, timestamps) replaces the in-memory one and the dirty flag
// clears. History is left intact so undo still works across a save.
func (s *Store) MarkSaved(saved *domain.ReportDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.def == nil || saved == nil || saved.ID != s.def.ID {
		return
	}
	s.def.Version = saved.Version
	s.def.UpdatedAt = saved.UpdatedAt
	s.dirty = false
}

// SelectSection marks a section as selected. An empty id clears selection.
func (s *Store) SelectSection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.selected = ""
		return nil
	}
	if s.def == nil || s.def.FindSection(id) == nil {
		return domain.ErrNotFound("section %q not found", id)
	}
	s.selected = id
	return nil
}

// SelectedSection returns the currently selected section id ("" when none).
func (s *Store) SelectedSection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetDraggingFields records the field ids currently being dragged. Purely
// transient: never persisted, never snapshotted.
func (s *Store) SetDraggingFields(fieldIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragging = append([]string(nil), fieldIDs...)
}

// DraggingFields returns the field ids of the drag in progress, if any.
func (s *Store) DraggingFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dragging...)
}

// Undo steps the model back one history entry. Returns false (a no-op, not
// an error) at the boundary.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.hist.undo()
	if prev == nil {
		return false
	}
	s.restoreLocked(prev)
	return true
}

// Redo steps the model forward one history entry. Returns false at the boundary.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.hist.redo()
	if next == nil {
		return false
	}
	s.restoreLocked(next)
	return true
}

func (s *Store) restoreLocked(def *domain.ReportDefinition) {
	s.def = def
	s.dirty = true
	if s.selected != "" && s.def.FindSection(s.selected) == nil {
		s.selected = ""
	}
	// Restored state may disagree with in-flight queries; supersede them.
	for id := range s.queryGen {
		s.queryGen[id]++
	}
}

// HistoryLen returns the number of retained snapshots (for diagnostics).
func (s *Store) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.len()
}

// recordMutation marks the store dirty and snapshots the fully-applied
// state. Called strictly after a structural mutation succeeds.
func (s *Store) recordMutationLocked(op string) {
	s.dirty = true
	s.hist.snapshot(s.def)
	s.logger.Debug("mutation applied", "op", op, "history_len", s.hist.len())
}
