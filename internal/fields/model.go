// Package fields defines the FormField entity and the Field Extractor
// (spec.md §3.1, §4.B): a flat, ordered materialization of a PDF's
// interactive-form dictionary, including widget annotations, radio groups,
// and parent/child inheritance.
package fields

// Kind is the normalized field kind, derived from the field-type entry plus
// flag bits (spec.md §3.1).
type Kind string

const (
	KindText       Kind = "text"
	KindCheckbox   Kind = "checkbox"
	KindRadio      Kind = "radio"
	KindDropdown   Kind = "dropdown"
	KindListbox    Kind = "listbox"
	KindSignature  Kind = "signature"
	KindPushbutton Kind = "pushbutton"
	KindUnknown    Kind = "unknown"
)

// Rect is a four-float bounding box [x1, y1, x2, y2] in page coordinates.
type Rect [4]float64

// IsZero reports whether the rect is the absent-placeholder [0,0,0,0].
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Flags is the boolean set derived from the PDF field-flag integer.
type Flags struct {
	ReadOnly       bool
	Required       bool
	NoExport       bool
	Multiline      bool
	Password       bool
	RadioBehavior  bool
	Pushbutton     bool
	Combo          bool
}

// FormField is one interactive field or widget (spec.md §3.1).
type FormField struct {
	ID                string
	Name              string
	Kind              Kind
	Page              int
	Rect              Rect
	Value             string
	Flags             Flags
	Options           []string
	Tooltip           string
	MappingName       string
	MaxLength         int
	DefaultAppearance string
	ParentID          string
	ChildrenIDs       []string
	IsGroupContainer  bool
}

// HasParent reports whether this field has a recorded parent id.
func (f FormField) HasParent() bool {
	return f.ParentID != ""
}
