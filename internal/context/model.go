// Package context implements the Context Extractor (spec.md §4.C): for each
// FormField it derives a FieldContext from an approximate layout analysis of
// the field's page.
//
// Grounded on the teacher's internal/intelligence package (label/section
// derivation over nearby text) and internal/pdf/wrapper/ledongthuc.go for
// plain-text extraction via github.com/ledongthuc/pdf, generalized from a
// best-effort form-field classifier into the spec's fixed-weight label and
// confidence derivation.
package context

// VisualGroup is a coarse vertical band a field's y-coordinate falls into.
type VisualGroup string

const (
	GroupHeader VisualGroup = "header"
	GroupUpper  VisualGroup = "upper"
	GroupMiddle VisualGroup = "middle"
	GroupLower  VisualGroup = "lower"
	GroupFooter VisualGroup = "footer"
)

// TextElement is a synthetic, position-approximated unit of page text.
type TextElement struct {
	Text  string
	X     float64
	Y     float64
	Width float64
}

// FieldContext is the derived metadata attached to one FormField.
type FieldContext struct {
	FieldID       string
	Label         string
	SectionHeader string
	NearbyText    []string
	TextAbove     string
	TextBelow     string
	TextLeft      string
	TextRight     string
	VisualGroup   VisualGroup
	Confidence    float64
}
