package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-studio/internal/domain"
)

func TestAddSection(t *testing.T) {
	store, _ := newTestStore(t)

	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)
	assert.NotEmpty(t, sec.ID)
	assert.Len(t, store.Current().Sections, 1)
	assert.Equal(t, sec.ID, store.SelectedSection(), "new section becomes selected")
	assert.True(t, store.Dirty())
}

func TestAddSectionNested(t *testing.T) {
	store, _ := newTestStore(t)

	parent, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindContainer, Layout: domain.Layout{W: 8, H: 6}})
	require.NoError(t, err)

	child, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindChart, Layout: domain.Layout{W: 4, H: 3}, ParentID: parent.ID})
	require.NoError(t, err)
	require.Len(t, parent.Children, 1)
	assert.Same(t, child, parent.Children[0])
	assert.Len(t, store.Current().Sections, 1, "nested section does not join the root list")
}

func TestAddSectionUnknownParentFailsLoudly(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}, ParentID: "nope"})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf, "a bad parent id must never silently land the section in the root list")
	assert.Empty(t, store.Current().Sections, "store unchanged on structural failure")
	assert.False(t, store.Dirty())
}

func TestAddSectionNonContainerParent(t *testing.T) {
	store, _ := newTestStore(t)

	table, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)

	_, err = store.AddSection(AddSectionRequest{Kind: domain.SectionKindText, Layout: domain.Layout{W: 2, H: 2}, ParentID: table.ID})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, table.Children)
}

func TestRemoveSection(t *testing.T) {
	store, _ := newTestStore(t)

	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)
	require.Equal(t, sec.ID, store.SelectedSection())

	require.NoError(t, store.RemoveSection(sec.ID))
	assert.Empty(t, store.Current().Sections)
	assert.Empty(t, store.SelectedSection(), "removing the selected section clears selection")

	var nf *domain.NotFoundError
	require.ErrorAs(t, store.RemoveSection(sec.ID), &nf)
}

func TestRemoveSectionDiscardsSubtree(t *testing.T) {
	store, _ := newTestStore(t)

	parent, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindContainer, Layout: domain.Layout{W: 8, H: 6}})
	require.NoError(t, err)
	child, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}, ParentID: parent.ID})
	require.NoError(t, err)

	require.NoError(t, store.RemoveSection(parent.ID))
	assert.Nil(t, store.Current().FindSection(child.ID))
	assert.Empty(t, store.SelectedSection(), "selection pointed at a removed child")
}

func TestUpdateSectionLayout(t *testing.T) {
	store, _ := newTestStore(t)

	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindChart, Layout: domain.Layout{X: 1, Y: 2, W: 4, H: 3}})
	require.NoError(t, err)

	x, w := 5, 8
	require.NoError(t, store.UpdateSectionLayout(sec.ID, domain.LayoutPatch{X: &x, W: &w}))
	assert.Equal(t, domain.Layout{X: 5, Y: 2, W: 8, H: 3}, sec.Layout, "patch merges, untouched fields survive")

	var nf *domain.NotFoundError
	require.ErrorAs(t, store.UpdateSectionLayout("missing", domain.LayoutPatch{X: &x}), &nf)
}

func TestAddFieldToSectionIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)

	added, err := store.AddFieldToSection(sec.ID, fundNameField, TargetDimensions)
	require.NoError(t, err)
	assert.True(t, added)
	histAfterFirst := store.HistoryLen()

	// Applying the same add twice yields the same lists as applying it once.
	added, err = store.AddFieldToSection(sec.ID, fundNameField, TargetDimensions)
	require.NoError(t, err)
	assert.False(t, added, "duplicate add is a no-op, not an error")
	assert.Equal(t, []string{"fund_name"}, sec.Query.Dimensions)
	assert.Equal(t, histAfterFirst, store.HistoryLen(), "no-op adds no history entry")
}

func TestAddFieldKeepsListsDisjoint(t *testing.T) {
	store, _ := newTestStore(t)
	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)

	_, err = store.AddFieldToSection(sec.ID, totalAssetsField, TargetMeasures)
	require.NoError(t, err)

	added, err := store.AddFieldToSection(sec.ID, totalAssetsField, TargetDimensions)
	require.NoError(t, err)
	assert.False(t, added, "a field never appears in both lists")
	assert.Empty(t, sec.Query.Dimensions)
	assert.Equal(t, []string{"total_assets"}, sec.Query.Measures)
}

func TestAddFieldToQuerylessSection(t *testing.T) {
	store, _ := newTestStore(t)
	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindText, Layout: domain.Layout{W: 2, H: 2}})
	require.NoError(t, err)

	_, err = store.AddFieldToSection(sec.ID, fundNameField, TargetDimensions)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestRemoveFieldFromSection(t *testing.T) {
	store, _ := newTestStore(t)
	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)
	_, err = store.AddFieldToSection(sec.ID, fundNameField, TargetDimensions)
	require.NoError(t, err)
	_, err = store.AddFieldToSection(sec.ID, regionField, TargetDimensions)
	require.NoError(t, err)

	require.NoError(t, store.RemoveFieldFromSection(sec.ID, "fund_name", TargetDimensions))
	assert.Equal(t, []string{"region"}, sec.Query.Dimensions)

	hist := store.HistoryLen()
	require.NoError(t, store.RemoveFieldFromSection(sec.ID, "fund_name", TargetDimensions), "removing a non-present field is a no-op")
	assert.Equal(t, hist, store.HistoryLen())
}

func TestAddFilterToSection(t *testing.T) {
	store, _ := newTestStore(t)
	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)

	require.NoError(t, store.AddFilterToSection(sec.ID, domain.QueryFilter{FieldID: "region", Op: domain.OpEquals, Value: "EMEA"}))
	require.Len(t, sec.Query.Filters, 1)
	assert.NotEmpty(t, sec.Query.Filters[0].ID, "filters get an id when the caller omits one")

	err = store.AddFilterToSection(sec.ID, domain.QueryFilter{Op: domain.OpEquals, Value: "x"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateSection(t *testing.T) {
	store, _ := newTestStore(t)
	sec, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindChart, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)

	title := "Assets by Region"
	cfg := &domain.ChartConfig{ChartType: "bar", ShowLegend: true}
	require.NoError(t, store.UpdateSection(sec.ID, SectionPatch{Title: &title, ChartConfig: cfg}))
	assert.Equal(t, "Assets by Region", sec.Title)
	require.NotNil(t, sec.ChartConfig)
	assert.Equal(t, "bar", sec.ChartConfig.ChartType)

	// Partial patch leaves other fields alone.
	content := ""
	require.NoError(t, store.UpdateSection(sec.ID, SectionPatch{Content: &content}))
	assert.Equal(t, "Assets by Region", sec.Title)
}

func TestCreateSectionWithField(t *testing.T) {
	store, _ := newTestStore(t)

	sec, err := store.CreateSectionWithField(fundNameField, domain.SectionKindTable)
	require.NoError(t, err)

	def := store.Current()
	require.Len(t, def.Sections, 1)
	assert.Equal(t, domain.SectionKindTable, def.Sections[0].Kind)
	assert.Equal(t, []string{"fund_name"}, def.Sections[0].Query.Dimensions)
	assert.Empty(t, def.Sections[0].Query.Measures)
	assert.Equal(t, sec.ID, store.SelectedSection())
}

func TestCreateSectionWithFieldRejectsTextKind(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CreateSectionWithField(fundNameField, domain.SectionKindText)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, store.Current().Sections)
}

func TestRoutingConsistency(t *testing.T) {
	// The target chosen by single drop, bundle drop, and
	// section-creation-with-field must agree for the same field.
	fields := []domain.Field{fundNameField, regionField, totalAssetsField, avgReturnField}
	for _, f := range fields {
		t.Run(f.ID, func(t *testing.T) {
			routed := RouteField(f)

			single, _ := newTestStore(t)
			sec, err := single.CreateSectionWithField(f, domain.SectionKindTable)
			require.NoError(t, err)
			if routed == TargetDimensions {
				assert.Equal(t, []string{f.ID}, sec.Query.Dimensions)
			} else {
				assert.Equal(t, []string{f.ID}, sec.Query.Measures)
			}

			viaDrop, _ := newTestStore(t)
			res, err := viaDrop.ResolveDrop(t.Context(), DropPayload{Fields: []domain.Field{f}}, DropTarget{})
			require.NoError(t, err)
			dropped := viaDrop.Current().FindSection(res.SectionID)
			if routed == TargetDimensions {
				assert.Equal(t, []string{f.ID}, dropped.Query.Dimensions)
			} else {
				assert.Equal(t, []string{f.ID}, dropped.Query.Measures)
			}
		})
	}
}

func TestStructuralFailureLeavesStoreUnchanged(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.AddSection(AddSectionRequest{Kind: domain.SectionKindTable, Layout: domain.Layout{W: 4, H: 3}})
	require.NoError(t, err)
	before := store.Current().Clone()

	var nf *domain.NotFoundError
	_, errAdd := store.AddFieldToSection("ghost", fundNameField, TargetDimensions)
	require.ErrorAs(t, errAdd, &nf)
	require.ErrorAs(t, store.RemoveSection("ghost"), &nf)
	require.ErrorAs(t, store.UpdateSection("ghost", SectionPatch{}), &nf)
	require.ErrorAs(t, store.AddFilterToSection("ghost", domain.QueryFilter{FieldID: "x", Op: domain.OpEquals}), &nf)

	assert.Equal(t, before, store.Current(), "failed operations are atomic no-ops")
}
