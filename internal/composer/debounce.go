package composer

import (
	"sync"
	"time"

	"report-studio/internal/domain"
)

// Debounced field keys. Free-form text fields flood the undo stack if every
// keystroke commits, so only the settled value becomes an operation.
// Everything else (steppers, toggles, pickers) commits immediately through
// UpdateSection.
const (
	FieldKeyContent    = "content"
	FieldKeyTitle      = "title"
	FieldKeyChartTitle = "chart.title"
)

func validFieldKey(key string) bool {
	switch key {
	case FieldKeyContent, FieldKeyTitle, FieldKeyChartTitle:
		return true
	}
	return false
}

type editKey struct {
	sectionID string
	fieldKey  string
}

type pendingEdit struct {
	timer *time.Timer
	value string
}

// Editor manages debounced-commit edits on the selected section. Each
// (section, field) pair owns one cancellable timer; staging a new value
// re-arms it. The commit fires only after the quiet period, and is dropped
// if the section was deselected or removed in the meantime.
type Editor struct {
	store    *Store
	interval time.Duration

	mu      sync.Mutex
	pending map[editKey]*pendingEdit
	closed  bool
}

// NewEditor creates an editor bound to the store. A non-positive interval
// falls back to the store's configured debounce interval.
func NewEditor(store *Store, interval time.Duration) *Editor {
	if interval <= 0 {
		interval = store.interval
	}
	return &Editor{
		store:    store,
		interval: interval,
		pending:  map[editKey]*pendingEdit{},
	}
}

// Select switches the selected section: any pending commits for previously
// selected sections are cancelled (not committed) and transient edit state
// starts fresh from the newly selected section.
func (e *Editor) Select(sectionID string) error {
	if err := e.store.SelectSection(sectionID); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for key, p := range e.pending {
		if key.sectionID != sectionID {
			p.timer.Stop()
			delete(e.pending, key)
		}
	}
	return nil
}

// Stage records a keystroke-level value for a debounced field and re-arms
// the quiet-period timer. The value is available immediately through Value
// for visual feedback; the composition operation (and its history
// snapshot) fires only after the quiet period elapses with no further input.
func (e *Editor) Stage(sectionID, fieldKey, value string) error {
	if !validFieldKey(fieldKey) {
		return domain.ErrValidation("field key %q is not debounced", fieldKey)
	}
	if e.store.SelectedSection() != sectionID {
		return domain.ErrValidation("section %q is not selected", sectionID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrValidation("editor is closed")
	}

	key := editKey{sectionID: sectionID, fieldKey: fieldKey}
	if p, ok := e.pending[key]; ok {
		p.value = value
		p.timer.Reset(e.interval)
		return nil
	}

	p := &pendingEdit{value: value}
	p.timer = time.AfterFunc(e.interval, func() { e.fire(key) })
	e.pending[key] = p
	return nil
}

// Value returns the staged (not yet committed) value for a field, if any.
func (e *Editor) Value(sectionID, fieldKey string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.pending[editKey{sectionID: sectionID, fieldKey: fieldKey}]
	if !ok {
		return "", false
	}
	return p.value, true
}

// Flush commits all pending edits immediately. Used before an explicit save
// so a settled-but-uncommitted value is not lost.
func (e *Editor) Flush() {
	e.mu.Lock()
	keys := make([]editKey, 0, len(e.pending))
	for key, p := range e.pending {
		p.timer.Stop()
		keys = append(keys, key)
	}
	e.mu.Unlock()

	for _, key := range keys {
		e.fire(key)
	}
}

// Close cancels every pending commit without applying it. Called on
// unmount so a straggling timer cannot mutate the model afterwards.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for key, p := range e.pending {
		p.timer.Stop()
		delete(e.pending, key)
	}
}

func (e *Editor) fire(key editKey) {
	e.mu.Lock()
	p, ok := e.pending[key]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.pending, key)
	value := p.value
	e.mu.Unlock()

	e.store.commitDebounced(key.sectionID, key.fieldKey, value)
}

// commitDebounced applies a settled debounced edit. The commit is dropped —
// not an error — when the section was deselected or removed after the edit
// was staged.
func (s *Store) commitDebounced(sectionID, fieldKey, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected != sectionID || s.def == nil {
		s.logger.Debug("dropping debounced commit for deselected section", "section_id", sectionID, "field", fieldKey)
		return false
	}
	sec := s.def.FindSection(sectionID)
	if sec == nil {
		s.logger.Debug("dropping debounced commit for removed section", "section_id", sectionID, "field", fieldKey)
		return false
	}

	switch fieldKey {
	case FieldKeyContent:
		sec.Content = value
	case FieldKeyTitle:
		sec.Title = value
	case FieldKeyChartTitle:
		if sec.ChartConfig == nil {
			sec.ChartConfig = &domain.ChartConfig{}
		}
		sec.ChartConfig.Title = value
	default:
		return false
	}
	s.recordMutationLocked("updateSection")
	return true
}
