package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pdfcontext "github.com/a3tai/pdfrename/internal/context"
)

func TestConfidenceByFieldID(t *testing.T) {
	assert.Nil(t, confidenceByFieldID(nil))

	contexts := []pdfcontext.FieldContext{
		{FieldID: "field_000000", Confidence: 0.42},
		{FieldID: "field_000001", Confidence: 0.9},
	}
	got := confidenceByFieldID(contexts)
	assert.Equal(t, 0.42, got["field_000000"])
	assert.Equal(t, 0.9, got["field_000001"])
}
