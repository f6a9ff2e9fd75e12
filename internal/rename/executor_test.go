package rename

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdfrename/internal/backup"
	"github.com/a3tai/pdfrename/internal/pdfmodel/testutil"
)

// fakeMutableDoc adapts testutil.FakeResolver into a MutableDoc for tests.
// writeErr, when set, simulates a failure during the final serialization
// step (spec.md §8.4 scenario 5).
type fakeMutableDoc struct {
	*testutil.FakeResolver
	writeErr   error
	writtenTo  string
	writeCalls int
}

func (f *fakeMutableDoc) WriteTo(path string) error {
	f.writeCalls++
	f.writtenTo = path
	return f.writeErr
}

func writeFakeSourcePDF(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\n...fake...\n%%EOF"), 0o640))
	return path
}

func singleFieldDoc(name string) (*fakeMutableDoc, types.Dict) {
	r := testutil.NewFakeResolver()
	widget := types.Dict{
		"T":    types.StringLiteral(name),
		"FT":   types.Name("Tx"),
		"Rect": types.Array{types.Float(0), types.Float(0), types.Float(10), types.Float(10)},
	}
	ref := r.Ref(widget)
	r.AcroFields = types.Array{ref}
	return &fakeMutableDoc{FakeResolver: r}, widget
}

func TestExecutor_AppliesRename(t *testing.T) {
	doc, widget := singleFieldDoc("old-name")
	plan := &ModificationPlan{
		Modifications: []*FieldModification{
			{FieldID: "field_000000", OldName: "old-name", NewName: "new-name"},
		},
	}

	exec := NewExecutor(nil, nil, nil)
	result, err := exec.Run(doc, plan, "", "/tmp/out.pdf", false, false)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.AppliedCount)
	assert.Equal(t, StatusSuccess, plan.Modifications[0].Status)
	assert.Equal(t, "new-name", widget["T"].(types.StringLiteral).Value())
	assert.Equal(t, 1, doc.writeCalls)
	assert.Equal(t, "/tmp/out.pdf", result.OutputPath)
}

func TestExecutor_DryRunDoesNotMutateOrWrite(t *testing.T) {
	doc, widget := singleFieldDoc("old-name")
	plan := &ModificationPlan{
		Modifications: []*FieldModification{
			{FieldID: "field_000000", OldName: "old-name", NewName: "new-name"},
		},
	}

	exec := NewExecutor(nil, nil, nil)
	result, err := exec.Run(doc, plan, "", "/tmp/out.pdf", true, false)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, StatusSuccess, plan.Modifications[0].Status)
	assert.Equal(t, "old-name", widget["T"].(types.StringLiteral).Value())
	assert.Equal(t, 0, doc.writeCalls)
	assert.Empty(t, result.OutputPath)
}

func TestExecutor_UnmappedFieldIsSkipped(t *testing.T) {
	doc, widget := singleFieldDoc("old-name")
	plan := &ModificationPlan{
		Modifications: []*FieldModification{
			{FieldID: "field_999999", OldName: "ghost", NewName: "ghost-2"},
		},
	}

	exec := NewExecutor(nil, nil, nil)
	result, err := exec.Run(doc, plan, "", "/tmp/out.pdf", false, false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.AppliedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, StatusSkipped, plan.Modifications[0].Status)
	assert.Equal(t, "old-name", widget["T"].(types.StringLiteral).Value())
}

func TestExecutor_RenamesRadioGroupChild(t *testing.T) {
	r := testutil.NewFakeResolver()
	maleWidget := types.Dict{
		"Subtype": types.Name("Widget"),
		"AP":      types.Dict{"N": types.Dict{"Male": types.Integer(1), "Off": types.Integer(0)}},
		"AS":      types.Name("Off"),
	}
	femaleWidget := types.Dict{
		"Subtype": types.Name("Widget"),
		"AP":      types.Dict{"N": types.Dict{"Female": types.Integer(1), "Off": types.Integer(0)}},
		"AS":      types.Name("Female"),
	}
	maleRef := r.Ref(maleWidget)
	femaleRef := r.Ref(femaleWidget)
	parent := types.Dict{
		"T":    types.StringLiteral("Gender"),
		"FT":   types.Name("Btn"),
		"Ff":   types.Integer(1 << 15),
		"Kids": types.Array{maleRef, femaleRef},
	}
	parentRef := r.Ref(parent)
	r.AcroFields = types.Array{parentRef}
	doc := &fakeMutableDoc{FakeResolver: r}

	plan := &ModificationPlan{
		Modifications: []*FieldModification{
			{FieldID: "field_000000", OldName: "Gender", NewName: "gender"},
			{FieldID: "field_000000_0", OldName: "Gender__Male", NewName: "gender--male"},
			{FieldID: "field_000000_1", OldName: "Gender__Female", NewName: "gender--female"},
		},
	}

	exec := NewExecutor(nil, nil, nil)
	result, err := exec.Run(doc, plan, "", "/tmp/out.pdf", false, false)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.AppliedCount)
	assert.Equal(t, "gender", parent["T"].(types.StringLiteral).Value())
	assert.Equal(t, "gender--male", maleWidget["T"].(types.StringLiteral).Value())
	assert.Equal(t, "gender--female", femaleWidget["T"].(types.StringLiteral).Value())
}

func TestExecutor_RollsBackOnWriteFailure(t *testing.T) {
	srcDir := t.TempDir()
	backupDir := t.TempDir()
	src := writeFakeSourcePDF(t, srcDir)

	doc, _ := singleFieldDoc("old-name")
	doc.writeErr = assert.AnError

	plan := &ModificationPlan{
		Modifications: []*FieldModification{
			{FieldID: "field_000000", OldName: "old-name", NewName: "new-name"},
		},
	}

	backupSvc := backup.NewService(backupDir, nil)
	exec := NewExecutor(backupSvc, nil, nil)
	result, err := exec.Run(doc, plan, src, filepath.Join(srcDir, "out.pdf"), false, true)

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.RolledBack)
	assert.NotEmpty(t, result.BackupID)
	assert.Equal(t, StatusRolledBack, plan.Modifications[0].Status)
}

func TestExecutor_IdempotentOnSecondRun(t *testing.T) {
	doc, widget := singleFieldDoc("old-name")
	plan := &ModificationPlan{
		Modifications: []*FieldModification{
			{FieldID: "field_000000", OldName: "old-name", NewName: "new-name"},
		},
	}

	exec := NewExecutor(nil, nil, nil)
	_, err := exec.Run(doc, plan, "", "/tmp/out.pdf", false, false)
	require.NoError(t, err)
	require.Equal(t, "new-name", widget["T"].(types.StringLiteral).Value())

	// Re-running the same mapping against the already-renamed document
	// cannot match field_000000's old name but still matches by id and is
	// a safe no-op in effect (same target name written again).
	plan2 := &ModificationPlan{
		Modifications: []*FieldModification{
			{FieldID: "field_000000", OldName: "old-name", NewName: "new-name"},
		},
	}
	result, err := exec.Run(doc, plan2, "", "/tmp/out.pdf", false, false)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "new-name", widget["T"].(types.StringLiteral).Value())
}
