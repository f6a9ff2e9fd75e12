package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdfrename/internal/fields"
)

func TestExtractor_LabelFromColonTerminatedText(t *testing.T) {
	source := StaticTextSource{
		1: "APPLICATION FORM\n\nFull Name:\n\nSignature",
	}
	e := NewExtractor(source, nil)

	field := fields.FormField{
		ID:   "field_000000",
		Page: 1,
		Rect: fields.Rect{100, 770, 300, 790},
	}

	ctxs, err := e.Extract([]fields.FormField{field})
	require.NoError(t, err)
	require.Len(t, ctxs, 1)

	c := ctxs[0]
	assert.Equal(t, "field_000000", c.FieldID)
	assert.Equal(t, "Full Name", c.Label)
	assert.Equal(t, "APPLICATION FORM", c.SectionHeader)
	assert.Greater(t, c.Confidence, 0.3)
}

func TestExtractor_NoNearbyTextYieldsBaselineConfidence(t *testing.T) {
	source := StaticTextSource{1: ""}
	e := NewExtractor(source, nil)

	field := fields.FormField{ID: "field_000000", Page: 1, Rect: fields.Rect{0, 0, 0, 0}}
	ctxs, err := e.Extract([]fields.FormField{field})
	require.NoError(t, err)
	require.Len(t, ctxs, 1)
	assert.Equal(t, "", ctxs[0].Label)
	assert.InDelta(t, 0.3, ctxs[0].Confidence, 0.001)
}

func TestExtractor_VisualGroupBucketing(t *testing.T) {
	assert.Equal(t, GroupHeader, visualGroup(750))
	assert.Equal(t, GroupUpper, visualGroup(600))
	assert.Equal(t, GroupMiddle, visualGroup(400))
	assert.Equal(t, GroupLower, visualGroup(200))
	assert.Equal(t, GroupFooter, visualGroup(50))
}

func TestExtractor_KeywordLabelWithoutColon(t *testing.T) {
	source := StaticTextSource{1: "Email Address"}
	e := NewExtractor(source, nil)
	field := fields.FormField{ID: "field_000001", Page: 1, Rect: fields.Rect{100, 800, 300, 815}}
	ctxs, err := e.Extract([]fields.FormField{field})
	require.NoError(t, err)
	assert.Equal(t, "Email Address", ctxs[0].Label)
}
