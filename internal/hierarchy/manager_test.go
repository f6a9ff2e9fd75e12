package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdfrename/internal/fields"
)

func sampleRadioGroup() []fields.FormField {
	return []fields.FormField{
		{ID: "field_000000", Name: "Gender", Kind: fields.KindRadio, ChildrenIDs: []string{"field_000000_0", "field_000000_1"}, IsGroupContainer: true},
		{ID: "field_000000_0", Name: "Gender__Male", Kind: fields.KindRadio, ParentID: "field_000000"},
		{ID: "field_000000_1", Name: "Gender__Female", Kind: fields.KindRadio, ParentID: "field_000000"},
	}
}

func TestManager_BuildAndQualifiedNames(t *testing.T) {
	m := Build(sampleRadioGroup())

	root, ok := m.Node("field_000000")
	require.True(t, ok)
	assert.Equal(t, "Gender", root.QualifiedName)
	assert.Equal(t, 0, root.Depth)

	male, ok := m.Node("field_000000_0")
	require.True(t, ok)
	assert.Equal(t, "Gender.Gender__Male", male.QualifiedName)
	assert.Equal(t, 1, male.Depth)
}

func TestManager_ApplyRenamesRecomputesQualifiedNames(t *testing.T) {
	m := Build(sampleRadioGroup())
	m.ApplyRenames(map[string]string{
		"field_000000":   "owner-information_gender",
		"field_000000_0": "owner-information_gender__male",
	})

	male, _ := m.Node("field_000000_0")
	assert.Equal(t, "owner-information_gender.owner-information_gender__male", male.QualifiedName)
}

func TestManager_ValidateDetectsCycle(t *testing.T) {
	fieldList := []fields.FormField{
		{ID: "a", Name: "A", ChildrenIDs: []string{"b"}},
		{ID: "b", Name: "B", ParentID: "a", ChildrenIDs: []string{"a"}},
	}
	m := Build(fieldList)
	report := m.Validate()
	assert.NotEmpty(t, report.Cycles)
	assert.True(t, report.HasCritical())
}

func TestManager_ValidateDetectsSiblingConflict(t *testing.T) {
	fieldList := []fields.FormField{
		{ID: "p", Name: "Parent", ChildrenIDs: []string{"c1", "c2"}},
		{ID: "c1", Name: "Same", ParentID: "p"},
		{ID: "c2", Name: "Same", ParentID: "p"},
	}
	m := Build(fieldList)
	report := m.Validate()
	assert.NotEmpty(t, report.SiblingConflicts)
}

func TestManager_ValidateDetectsQualifiedNameConflict(t *testing.T) {
	fieldList := []fields.FormField{
		{ID: "a", Name: "Dup"},
		{ID: "b", Name: "Dup"},
	}
	m := Build(fieldList)
	report := m.Validate()
	assert.NotEmpty(t, report.QualifiedNameConflicts)
	assert.True(t, report.HasCritical())
}

func TestManager_ProposeRevertsAfterDryRun(t *testing.T) {
	m := Build(sampleRadioGroup())
	before, _ := m.Node("field_000000")
	beforeName := before.Name

	report := m.Propose(map[string]string{"field_000000": "renamed-temp"})
	assert.Empty(t, report.Cycles)

	after, _ := m.Node("field_000000")
	assert.Equal(t, beforeName, after.Name)
}

func TestManager_OrphanedNodeRetainedAsRoot(t *testing.T) {
	fieldList := []fields.FormField{
		{ID: "a", Name: "A", ParentID: "missing-parent"},
	}
	m := Build(fieldList)
	report := m.Validate()
	require.NotEmpty(t, report.Orphaned)
	node, ok := m.Node("a")
	require.True(t, ok)
	assert.Equal(t, "A", node.QualifiedName)
}
