package integrity

import (
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdfrename/internal/fields"
	"github.com/a3tai/pdfrename/internal/pdfmodel/testutil"
)

// fakeSource adapts testutil.FakeResolver into a Source for tests.
type fakeSource struct {
	*testutil.FakeResolver
	version     string
	hasAcroForm bool
}

func (f *fakeSource) Version() string     { return f.version }
func (f *fakeSource) ObjectCount() int    { return len(f.Objects) }
func (f *fakeSource) HasAcroForm() bool   { return f.hasAcroForm }

func newFakeSource() *fakeSource {
	return &fakeSource{FakeResolver: testutil.NewFakeResolver(), version: "1.7", hasAcroForm: true}
}

func TestValidator_IdenticalFieldsYieldExcellent(t *testing.T) {
	src := newFakeSource()
	widget := types.Dict{
		"T":    types.StringLiteral("renamed-field"),
		"FT":   types.Name("Tx"),
		"Rect": types.Array{types.Float(10), types.Float(20), types.Float(100), types.Float(40)},
	}
	ref := src.Ref(widget)
	src.AddPage(types.Array{ref})
	src.AcroFields = types.Array{ref}

	original := []fields.FormField{
		{ID: "field_000000", Name: "original-field", Kind: fields.KindText, Page: 1, Rect: fields.Rect{10, 20, 100, 40}},
	}

	v := NewValidator(nil)
	report := v.Validate(src, original, 1)

	require.NotNil(t, report.Functionality)
	assert.True(t, report.Functionality.Functional)
	assert.True(t, report.Structure.Valid)
	assert.Equal(t, StatusExcellent, report.OverallStatus)
	assert.InDelta(t, 1.0, report.SafetyScore, 0.01)
}

func TestValidator_MissingFieldDegradesStatus(t *testing.T) {
	src := newFakeSource()
	// Mutated document has zero fields; original had one.
	original := []fields.FormField{
		{ID: "field_000000", Name: "x", Kind: fields.KindText, Page: 1},
	}

	v := NewValidator(nil)
	report := v.Validate(src, original, 1)

	require.NotNil(t, report.Functionality)
	assert.False(t, report.Functionality.Functional)
	assert.Contains(t, report.Functionality.MissingIDs, "field_000000")
	assert.NotEqual(t, StatusExcellent, report.OverallStatus)
}

func TestValidator_NoOriginalFieldsSkipsComparison(t *testing.T) {
	src := newFakeSource()
	v := NewValidator(nil)
	report := v.Validate(src, nil, 0)
	assert.Nil(t, report.Functionality)
	assert.Nil(t, report.Visual)
}
