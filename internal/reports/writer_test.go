package reports

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdfrename/internal/fields"
	"github.com/a3tai/pdfrename/internal/hierarchy"
	"github.com/a3tai/pdfrename/internal/integrity"
	"github.com/a3tai/pdfrename/internal/rename"
)

func sampleFields() []fields.FormField {
	return []fields.FormField{
		{ID: "field_000000", Name: "gender", Kind: fields.KindRadio, Page: 1, Rect: fields.Rect{0, 0, 10, 10}, IsGroupContainer: true},
		{ID: "field_000000_0", Name: "gender--male", Kind: fields.KindRadio, Page: 1, Rect: fields.Rect{0, 0, 5, 5}, ParentID: "field_000000"},
	}
}

func TestWriteModificationReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	result := &rename.ModificationResult{
		Success:      true,
		AppliedCount: 1,
		Modifications: []*rename.FieldModification{
			{FieldID: "field_000000", OldName: "Gender", NewName: "gender", Status: rename.StatusSuccess},
		},
	}

	hm := hierarchy.Build(sampleFields())
	hr := hm.Validate()

	require.NoError(t, WriteModificationReport(path, result, sampleFields(), hr))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded ModificationReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Success)
	assert.Equal(t, 1, decoded.AppliedCount)
	assert.Equal(t, 2, decoded.Preservation.TotalFields)
}

func TestWriteValidationReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "validation.json")

	report := &integrity.Report{OverallStatus: integrity.StatusExcellent, SafetyScore: 1.0}
	require.NoError(t, WriteValidationReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded ValidationReportDoc
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, integrity.StatusExcellent, decoded.Report.OverallStatus)
	assert.Contains(t, decoded.Assessment, "fully preserved")
}

func TestWriteModificationSummaryCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.csv")

	mods := []*rename.FieldModification{
		{FieldID: "field_000000", OldName: "Gender", NewName: "gender", Kind: fields.KindRadio, Page: 1, Status: rename.StatusSuccess},
	}
	ctx := ModificationContext{Confidence: map[string]float64{"field_000000": 0.8}}

	require.NoError(t, WriteModificationSummaryCSV(path, mods, ctx))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "field_000000", rows[1][0])
	assert.Equal(t, "gender", rows[1][2])
	assert.Equal(t, "0.80", rows[1][7])
}

func TestWriteDatabaseCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.csv")

	fl := sampleFields()
	hm := hierarchy.Build(fl)

	require.NoError(t, WriteDatabaseCSV(path, fl, hm))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 27, len(rows[0]))
	// child row references parent's 1-based order position.
	assert.Equal(t, "1", rows[2][10])
	assert.Equal(t, "RadioButton", rows[2][9])
}
