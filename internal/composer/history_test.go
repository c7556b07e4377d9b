package composer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-studio/internal/domain"
)

func addTableSection(t *testing.T, store *Store) *domain.Section {
	t.Helper()
	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)
	return sec
}

func TestUndoRedoRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	// Apply N structural operations, remembering the state after each.
	var states []*domain.ReportDefinition
	sec := addTableSection(t, store)
	states = append(states, store.Current().Clone())

	_, err := store.AddFieldToSection(sec.ID, fundNameField, TargetDimensions)
	require.NoError(t, err)
	states = append(states, store.Current().Clone())

	_, err = store.AddFieldToSection(sec.ID, totalAssetsField, TargetMeasures)
	require.NoError(t, err)
	states = append(states, store.Current().Clone())

	require.NoError(t, store.AddFilterToSection(sec.ID, domain.QueryFilter{ID: "f1", FieldID: "region", Op: domain.OpEquals, Value: "EMEA"}))
	states = append(states, store.Current().Clone())

	n := len(states)
	for i := n - 2; i >= 0; i-- {
		require.True(t, store.Undo())
		assert.Equal(t, states[i].Sections, store.Current().Sections, "undo step %d", n-1-i)
	}

	// One more undo reaches the initial empty report.
	require.True(t, store.Undo())
	assert.Empty(t, store.Current().Sections)
	assert.False(t, store.Undo(), "undo past the oldest entry is a no-op")

	for i := 0; i < n; i++ {
		require.True(t, store.Redo(), "redo step %d", i)
	}
	assert.False(t, store.Redo())
	assert.Equal(t, states[n-1].Sections, store.Current().Sections, "redo restores the final state")
}

func TestUndoRedoBoundariesAreNoOps(t *testing.T) {
	store, _ := newTestStore(t)
	assert.False(t, store.Undo(), "nothing to undo on a fresh report")
	assert.False(t, store.Redo(), "nothing to redo on a fresh report")

	addTableSection(t, store)
	assert.False(t, store.Redo(), "redo with no undone entries is a no-op")
	require.True(t, store.Undo())
	assert.False(t, store.Undo())
	require.True(t, store.Redo())
	assert.False(t, store.Redo())
}

func TestSnapshotTruncatesRedoTail(t *testing.T) {
	store, _ := newTestStore(t)
	addTableSection(t, store)
	addTableSection(t, store)
	require.True(t, store.Undo())

	// A new mutation after undo discards the redo branch.
	addTableSection(t, store)
	assert.False(t, store.Redo())
	assert.Len(t, store.Current().Sections, 2)
}

func TestBoundedHistory(t *testing.T) {
	store, _ := newTestStore(t)
	sec := addTableSection(t, store)

	// 60 structural operations: alternate a filter add and a layout nudge.
	for i := 0; i < 59; i++ {
		if i%2 == 0 {
			require.NoError(t, store.AddFilterToSection(sec.ID, domain.QueryFilter{
				FieldID: "region", Op: domain.OpEquals, Value: fmt.Sprintf("v%d", i),
			}))
		} else {
			x := i
			require.NoError(t, store.UpdateSectionLayout(sec.ID, domain.LayoutPatch{X: &x}))
		}
	}

	assert.LessOrEqual(t, store.HistoryLen(), DefaultHistoryLimit, "history never exceeds the cap")
	assert.Equal(t, DefaultHistoryLimit, store.HistoryLen())

	undos := 0
	for store.Undo() {
		undos++
	}
	assert.Equal(t, DefaultHistoryLimit-1, undos, "undo reaches the oldest retained state, not further")
	// The oldest retained state is not the initial empty report: the early
	// snapshots were evicted.
	assert.Len(t, store.Current().Sections, 1)
	assert.NotEmpty(t, store.Current().Sections[0].Query.Filters)
}

func TestHistoryEvictionRebasesCursor(t *testing.T) {
	h := newHistory(3)
	defs := make([]*domain.ReportDefinition, 5)
	for i := range defs {
		defs[i] = &domain.ReportDefinition{ID: "r", Name: fmt.Sprintf("state-%d", i), Version: 1}
	}

	h.reset(defs[0])
	for _, d := range defs[1:] {
		h.snapshot(d)
	}

	assert.Equal(t, 3, h.len())
	assert.Equal(t, 2, h.cursor, "cursor re-based after eviction")

	got := h.undo()
	require.NotNil(t, got)
	assert.Equal(t, "state-3", got.Name)
	got = h.undo()
	require.NotNil(t, got)
	assert.Equal(t, "state-2", got.Name)
	assert.Nil(t, h.undo(), "older states were evicted")
}

func TestRemoveThenUndoRestoresReport(t *testing.T) {
	store, _ := newTestStore(t)
	sec1 := addTableSection(t, store)
	_, err := store.AddFieldToSection(sec1.ID, fundNameField, TargetDimensions)
	require.NoError(t, err)
	sec2 := addTableSection(t, store)
	_, err = store.AddFieldToSection(sec2.ID, totalAssetsField, TargetMeasures)
	require.NoError(t, err)

	before := store.Current().Clone()

	require.NoError(t, store.RemoveSection(sec2.ID))
	require.Len(t, store.Current().Sections, 1)

	require.True(t, store.Undo())
	after := store.Current()
	assert.Equal(t, before.Sections, after.Sections, "same section ids, same field lists")
	assert.Equal(t, sec2.ID, after.Sections[1].ID)
	assert.Equal(t, []string{"total_assets"}, after.Sections[1].Query.Measures)
}

func TestUndoClearsDanglingSelection(t *testing.T) {
	store, _ := newTestStore(t)
	addTableSection(t, store)
	require.True(t, store.Undo())
	assert.Empty(t, store.SelectedSection(), "selected section does not exist in the restored state")
}
