package context

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageTextSource yields the plain text of a single page, cached per call site
// by the Extractor so a multi-field page is only read once per run.
type PageTextSource interface {
	PageText(page int) (string, error)
}

// LedongthucTextSource extracts page text via github.com/ledongthuc/pdf,
// the same library the teacher wraps in internal/pdf/wrapper/ledongthuc.go
// for its secondary, metadata-light extraction path.
type LedongthucTextSource struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenLedongthucTextSource opens path for plain-text extraction. The caller
// must call Close when done.
func OpenLedongthucTextSource(path string) (*LedongthucTextSource, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &LedongthucTextSource{file: f, reader: r}, nil
}

// PageText returns the plain text of the given 1-based page number.
func (s *LedongthucTextSource) PageText(page int) (string, error) {
	if page < 1 || page > s.reader.NumPage() {
		return "", nil
	}
	p := s.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Close releases the underlying file handle.
func (s *LedongthucTextSource) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// StaticTextSource is an in-memory PageTextSource for tests and for callers
// that already have page text available (e.g. from a prior extraction pass).
type StaticTextSource map[int]string

func (s StaticTextSource) PageText(page int) (string, error) {
	return s[page], nil
}

// buildLines converts raw page text into position-approximated TextElements
// per spec.md §4.C.1: split on newlines, each nonempty line gets a
// monotonically decreasing y starting at topMargin with a fixed lineSpacing
// decrement, a fixed x, and a width proportional to character count. This is
// an intentional approximation in lieu of a content-stream parser.
func buildLines(text string) []TextElement {
	const (
		topMargin   = 800.0
		lineSpacing = 15.0
		x           = 100.0
		charWidth   = 5.0
	)
	lines := strings.Split(text, "\n")
	elements := make([]TextElement, 0, len(lines))
	y := topMargin
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			y -= lineSpacing
			continue
		}
		elements = append(elements, TextElement{
			Text:  trimmed,
			X:     x,
			Y:     y,
			Width: float64(len(trimmed)) * charWidth,
		})
		y -= lineSpacing
	}
	return elements
}
