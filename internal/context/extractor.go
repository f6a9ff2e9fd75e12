package context

import (
	"math"
	"sort"
	"strings"

	"github.com/a3tai/pdfrename/internal/fields"
	"github.com/a3tai/pdfrename/internal/pdferrors"
)

const (
	proximityThreshold = 100.0
	maxNearby          = 10
)

var labelKeywords = []string{"name", "address", "phone", "email", "date", "amount", "signature"}

var sectionKeywords = []string{"section", "part", "information"}

// Extractor derives a FieldContext for every FormField by approximating the
// layout of the field's containing page (spec.md §4.C).
type Extractor struct {
	source PageTextSource
	logger *pdferrors.Logger

	lineCache    map[int][]TextElement
	sectionCache map[int]string
}

// NewExtractor builds a Context Extractor backed by source. A nil logger
// discards trace output.
func NewExtractor(source PageTextSource, logger *pdferrors.Logger) *Extractor {
	if logger == nil {
		logger = pdferrors.Discard()
	}
	return &Extractor{
		source:       source,
		logger:       logger,
		lineCache:    map[int][]TextElement{},
		sectionCache: map[int]string{},
	}
}

// Extract derives one FieldContext per field in fieldList.
func (e *Extractor) Extract(fieldList []fields.FormField) ([]FieldContext, error) {
	out := make([]FieldContext, 0, len(fieldList))
	for _, f := range fieldList {
		lines, err := e.pageLines(f.Page)
		if err != nil {
			e.logger.Warnf("context: page %d text extraction failed: %v", f.Page, err)
			lines = nil
		}
		out = append(out, e.buildContext(f, lines))
	}
	return out, nil
}

func (e *Extractor) pageLines(page int) ([]TextElement, error) {
	if cached, ok := e.lineCache[page]; ok {
		return cached, nil
	}
	text, err := e.source.PageText(page)
	if err != nil {
		return nil, err
	}
	lines := buildLines(text)
	e.lineCache[page] = lines
	e.sectionCache[page] = deriveSectionHeader(lines)
	return lines, nil
}

func (e *Extractor) buildContext(f fields.FormField, lines []TextElement) FieldContext {
	anchorX, anchorY := f.Rect[0], f.Rect[1]

	nearby := nearbyElements(lines, anchorX, anchorY)
	ranked := rankByLabelLikeness(nearby)

	label, strongLabel := deriveLabel(ranked)
	nearbyText := make([]string, 0, len(ranked))
	for _, el := range ranked {
		nearbyText = append(nearbyText, el.Text)
	}

	above, below, left, right := directionalNeighbors(lines, anchorX, anchorY)

	ctx := FieldContext{
		FieldID:       f.ID,
		Label:         label,
		SectionHeader: e.sectionCache[f.Page],
		NearbyText:    nearbyText,
		TextAbove:     above,
		TextBelow:     below,
		TextLeft:      left,
		TextRight:     right,
		VisualGroup:   visualGroup(anchorY),
	}
	ctx.Confidence = computeConfidence(ctx, strongLabel)
	return ctx
}

// nearbyElements returns every element within proximityThreshold points of
// (x, y), capped at maxNearby after ranking by the caller.
func nearbyElements(lines []TextElement, x, y float64) []TextElement {
	var out []TextElement
	for _, el := range lines {
		dx := el.X - x
		dy := el.Y - y
		if math.Hypot(dx, dy) <= proximityThreshold {
			out = append(out, el)
		}
	}
	return out
}

// rankByLabelLikeness orders candidates colon-terminated first,
// question-terminated second, short (<=5 word) strings next, ties broken by
// ascending length, then caps the result at maxNearby.
func rankByLabelLikeness(candidates []TextElement) []TextElement {
	rank := func(s string) int {
		switch {
		case strings.HasSuffix(s, ":"):
			return 0
		case strings.HasSuffix(s, "?"):
			return 1
		case wordCount(s) <= 5:
			return 2
		default:
			return 3
		}
	}
	sorted := make([]TextElement, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(sorted[i].Text), rank(sorted[j].Text)
		if ri != rj {
			return ri < rj
		}
		return len(sorted[i].Text) < len(sorted[j].Text)
	})
	if len(sorted) > maxNearby {
		sorted = sorted[:maxNearby]
	}
	return sorted
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// deriveLabel implements spec.md §4.C.3. The second return value reports
// whether the chosen label was colon-terminated or keyword-bearing, for
// spec.md §4.C.7's confidence bonus, computed here before the trailing
// colon is stripped rather than re-sniffed from the returned string.
func deriveLabel(ranked []TextElement) (string, bool) {
	for _, el := range ranked {
		if strings.HasSuffix(el.Text, ":") {
			return strings.TrimSpace(strings.TrimSuffix(el.Text, ":")), true
		}
	}
	lower := func(s string) string { return strings.ToLower(s) }
	for _, el := range ranked {
		l := lower(el.Text)
		for _, kw := range labelKeywords {
			if strings.Contains(l, kw) {
				return el.Text, true
			}
		}
	}
	if len(ranked) > 0 && wordCount(ranked[0].Text) <= 5 {
		return ranked[0].Text, false
	}
	return "", false
}

// deriveSectionHeader implements spec.md §4.C.4 over a page's lines, taking
// the first line (in page order, i.e. reading order / descending y) that
// qualifies.
func deriveSectionHeader(lines []TextElement) string {
	ordered := make([]TextElement, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Y > ordered[j].Y })

	for _, el := range ordered {
		t := el.Text
		if t == strings.ToUpper(t) && strings.ToUpper(t) != strings.ToLower(t) {
			return t
		}
		lower := strings.ToLower(t)
		for _, kw := range sectionKeywords {
			if strings.Contains(lower, kw) {
				return t
			}
		}
		if strings.HasSuffix(t, ":") && wordCount(t) <= 4 {
			return t
		}
	}
	return ""
}

// directionalNeighbors returns the closest element strictly above, below,
// left, and right of (x, y) by the appropriate axis distance.
func directionalNeighbors(lines []TextElement, x, y float64) (above, below, left, right string) {
	var bestAbove, bestBelow, bestLeft, bestRight float64
	haveAbove, haveBelow, haveLeft, haveRight := false, false, false, false

	for _, el := range lines {
		if el.Y > y {
			d := el.Y - y
			if !haveAbove || d < bestAbove {
				bestAbove, above, haveAbove = d, el.Text, true
			}
		}
		if el.Y < y {
			d := y - el.Y
			if !haveBelow || d < bestBelow {
				bestBelow, below, haveBelow = d, el.Text, true
			}
		}
		if el.X < x {
			d := x - el.X
			if !haveLeft || d < bestLeft {
				bestLeft, left, haveLeft = d, el.Text, true
			}
		}
		if el.X > x {
			d := el.X - x
			if !haveRight || d < bestRight {
				bestRight, right, haveRight = d, el.Text, true
			}
		}
	}
	return above, below, left, right
}

// visualGroup buckets y into five coarse bands across a standard 792pt-tall
// (US Letter) page.
func visualGroup(y float64) VisualGroup {
	switch {
	case y >= 700:
		return GroupHeader
	case y >= 550:
		return GroupUpper
	case y >= 350:
		return GroupMiddle
	case y >= 150:
		return GroupLower
	default:
		return GroupFooter
	}
}

// computeConfidence implements spec.md §4.C.7's additive scoring. strongLabel
// reports whether the label was colon-terminated or keyword-bearing at
// derivation time (deriveLabel strips the trailing colon before it reaches
// here, so that condition can't be re-checked against ctx.Label itself).
func computeConfidence(ctx FieldContext, strongLabel bool) float64 {
	score := 0.3
	if ctx.Label != "" {
		score += 0.1
		if strongLabel {
			score += 0.3
		}
	}
	switch {
	case len(ctx.NearbyText) >= 3:
		score += 0.2
	case len(ctx.NearbyText) >= 1:
		score += 0.1
	}
	if ctx.SectionHeader != "" {
		score += 0.1
	}
	if ctx.TextAbove != "" || ctx.TextBelow != "" || ctx.TextLeft != "" || ctx.TextRight != "" {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
