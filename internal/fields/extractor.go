package fields

import (
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdfrename/internal/pdferrors"
	"github.com/a3tai/pdfrename/internal/pdfmodel"
)

// largeFieldArrayThreshold is the top-level field count above which Extract
// emits a single informational trace notice per extraction (spec.md §4.B);
// the array is still processed whole.
const largeFieldArrayThreshold = 1000

// Extractor walks a document's interactive-form dictionary and produces a
// flat, ordered list of FormField entities (spec.md §4.B).
type Extractor struct {
	doc      pdfmodel.Resolver
	logger   *pdferrors.Logger
	warnings *pdferrors.Collection

	output []FormField
}

// NewExtractor creates an Extractor over doc. logger may be nil, in which
// case tracing is discarded.
func NewExtractor(doc pdfmodel.Resolver, logger *pdferrors.Logger) *Extractor {
	if logger == nil {
		logger = pdferrors.Discard()
	}
	return &Extractor{doc: doc, logger: logger, warnings: pdferrors.NewCollection()}
}

// Extract runs the extraction algorithm described in spec.md §4.B and
// returns the field list in depth-first, parent-before-children order
// matching the document's declared order.
func (e *Extractor) Extract() ([]FormField, *pdferrors.Collection, error) {
	e.output = nil

	fieldsArr, err := e.doc.AcroFormFields()
	if err != nil {
		e.warnings.AddWarning(pdferrors.Wrap(pdferrors.KindExtractionWarning, err).WithContext("AcroForm Fields array"))
		fieldsArr = nil
	}

	if len(fieldsArr) == 0 {
		// Supplemented feature (SPEC_FULL.md §D): fall back to standalone
		// widget annotations directly on pages when no AcroForm fields
		// array is present or it resolved empty.
		e.searchPageAnnotations()
		return e.output, e.warnings, nil
	}

	if len(fieldsArr) > largeFieldArrayThreshold {
		e.logger.Tracef("large field array: %d top-level fields, not chunking", len(fieldsArr))
	}

	for i, ref := range fieldsArr {
		id := fmt.Sprintf("field_%06d", i)
		path := map[string]bool{}
		e.parseHierarchy(ref, id, "", path)
	}

	return e.output, e.warnings, nil
}

// parseHierarchy implements the spec's parse-hierarchy(entry, index,
// visited) step. path tracks indirect-reference identities on the current
// descent to detect cycles; it is backtracked on return so DAG-shared
// objects reached via sibling branches are not mistaken for cycles.
func (e *Extractor) parseHierarchy(obj types.Object, id, parentID string, path map[string]bool) {
	if key, isIndirect := pdfmodel.Identity(obj); isIndirect {
		if path[key] {
			e.warnings.AddWarning(pdferrors.New(pdferrors.KindExtractionCycle, "cycle detected in field graph").WithField(id))
			return
		}
		path[key] = true
		defer delete(path, key)
	}

	dict, err := e.doc.DereferenceDict(obj)
	if err != nil || dict == nil {
		e.warnings.AddWarning(pdferrors.Wrap(pdferrors.KindExtractionWarning, fmt.Errorf("cannot dereference field: %w", err)).WithField(id))
		return
	}

	kidsArr := e.kids(dict)
	if len(kidsArr) > 0 {
		e.emitGroup(obj, dict, id, parentID, kidsArr, path)
		return
	}

	field := e.buildField(dict, id, parentID, KindUnknown)
	e.output = append(e.output, field)
}

func (e *Extractor) kids(dict types.Dict) types.Array {
	kidsObj, found := dict.Find("Kids")
	if !found {
		return nil
	}
	arr, err := e.doc.DereferenceArray(kidsObj)
	if err != nil {
		return nil
	}
	return arr
}

// emitGroup handles a field with a non-empty Kids array, whether the Kids
// are named sub-fields or bare widget annotations: the parent is emitted
// first as its own FormField with is_group_container = true, and each child
// is then recursed into with a composite id.
func (e *Extractor) emitGroup(obj types.Object, dict types.Dict, id, parentID string, kids types.Array, path map[string]bool) {
	parent := e.buildField(dict, id, parentID, KindUnknown)
	parent.IsGroupContainer = true
	parentIndex := len(e.output)
	e.output = append(e.output, parent)

	childIDs := make([]string, 0, len(kids))
	for ci, kidObj := range kids {
		childID := fmt.Sprintf("%s_%d", id, ci)
		before := len(e.output)
		e.parseWidgetOrSubfield(kidObj, childID, id, parent.Name, parent.Kind, ci, path)
		if len(e.output) > before {
			childIDs = append(childIDs, e.output[before].ID)
		}
	}

	e.output[parentIndex].ChildrenIDs = childIDs
}

// parseWidgetOrSubfield dispatches a Kid to either a full sub-field parse
// (the Kid has its own T entry and may itself be a group) or a bare widget
// annotation parse (radio/checkbox export-value naming, spec.md §4.B).
func (e *Extractor) parseWidgetOrSubfield(obj types.Object, id, parentID, parentName string, parentKind Kind, childIndex int, path map[string]bool) {
	if key, isIndirect := pdfmodel.Identity(obj); isIndirect {
		if path[key] {
			e.warnings.AddWarning(pdferrors.New(pdferrors.KindExtractionCycle, "cycle detected in field graph").WithField(id))
			return
		}
		path[key] = true
		defer delete(path, key)
	}

	dict, err := e.doc.DereferenceDict(obj)
	if err != nil || dict == nil {
		e.warnings.AddWarning(pdferrors.Wrap(pdferrors.KindExtractionWarning, fmt.Errorf("cannot dereference kid: %w", err)).WithField(id))
		return
	}

	if _, hasT := dict.Find("T"); hasT {
		// Nested named sub-field: may itself have Kids (nested group).
		if nestedKids := e.kids(dict); len(nestedKids) > 0 {
			e.emitGroup(obj, dict, id, parentID, nestedKids, path)
			return
		}
		e.output = append(e.output, e.buildField(dict, id, parentID, parentKind))
		return
	}

	// Bare widget: derive a radio/checkbox export-value name.
	exportValue := e.exportValue(dict, childIndex)
	name := parentName + "__" + exportValue

	kind := parentKind
	if kind == KindUnknown || kind == "" {
		kind = e.detectKindFromWidget(dict)
	}

	field := e.buildField(dict, id, parentID, kind)
	field.Name = name
	e.output = append(e.output, field)
}

// exportValue derives the export value for a radio/checkbox widget per
// spec.md §4.B: prefer the appearance-state key (excluding Off/No), then
// the first non-off key in the normal-appearance dictionary, then the
// value entry, then a positional fallback.
func (e *Extractor) exportValue(dict types.Dict, childIndex int) string {
	if asObj, found := dict.Find("AS"); found {
		if name, err := e.doc.DereferenceName(asObj); err == nil && !isOffState(name) {
			return name
		}
	}

	if apObj, found := dict.Find("AP"); found {
		if apDict, err := e.doc.DereferenceDict(apObj); err == nil && apDict != nil {
			if nObj, found := apDict.Find("N"); found {
				if nDict, err := e.doc.DereferenceDict(nObj); err == nil && nDict != nil {
					if key := firstNonOffKey(nDict); key != "" {
						return key
					}
				}
			}
		}
	}

	if vObj, found := dict.Find("V"); found {
		if name, err := e.doc.DereferenceName(vObj); err == nil && !isOffState(name) {
			return name
		}
		if str, err := e.doc.DereferenceStringOrHexLiteral(vObj); err == nil && str != "" {
			return str
		}
	}

	return fmt.Sprintf("option_%d", childIndex)
}

func isOffState(name string) bool {
	return name == "Off" || name == "No" || name == ""
}

func firstNonOffKey(dict types.Dict) string {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		if !isOffState(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

func (e *Extractor) detectKindFromWidget(dict types.Dict) Kind {
	if apObj, found := dict.Find("AP"); found {
		if apDict, err := e.doc.DereferenceDict(apObj); err == nil && apDict != nil {
			if nObj, found := apDict.Find("N"); found {
				if nDict, err := e.doc.DereferenceDict(nObj); err == nil && nDict != nil {
					if _, hasOff := nDict.Find("Off"); hasOff {
						return KindRadio
					}
				}
			}
		}
	}
	if _, found := dict.Find("Subtype"); found {
		return KindRadio
	}
	return KindUnknown
}

// searchPageAnnotations is the supplemented fallback (SPEC_FULL.md §D):
// when no AcroForm fields array is usable, synthesize standalone
// FormFields directly from page Widget annotations.
func (e *Extractor) searchPageAnnotations() {
	pageCount := e.doc.PageCount()
	for p := 1; p <= pageCount; p++ {
		pageDict, err := e.doc.PageDict(p)
		if err != nil || pageDict == nil {
			continue
		}
		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annotsArr, err := e.doc.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for i, annotObj := range annotsArr {
			dict, err := e.doc.DereferenceDict(annotObj)
			if err != nil || dict == nil {
				continue
			}
			subtypeObj, found := dict.Find("Subtype")
			if !found {
				continue
			}
			subtype, err := e.doc.DereferenceName(subtypeObj)
			if err != nil || subtype != "Widget" {
				continue
			}
			id := fmt.Sprintf("field_%06d", len(e.output))
			field := e.buildField(dict, id, "", KindUnknown)
			if field.Name == "" {
				field.Name = fmt.Sprintf("widget_field_%d_%d", p, i)
			}
			if field.Page == 1 {
				field.Page = p
			}
			e.output = append(e.output, field)
		}
	}
}

// buildField extracts all scalar properties of a field/widget dictionary
// into a FormField, following parse-field (spec.md §4.B).
func (e *Extractor) buildField(dict types.Dict, id, parentID string, inheritedKind Kind) FormField {
	field := FormField{ID: id, ParentID: parentID}

	field.Name = e.extractName(dict, id)
	field.Kind = e.extractKind(dict, inheritedKind)
	field.Value = e.extractValue(dict, field.Kind)
	field.Flags = e.extractFlags(dict)

	if field.Kind == KindDropdown || field.Kind == KindListbox || field.Kind == KindRadio {
		field.Options = e.extractOptions(dict)
	}

	rect, page := e.extractRectAndPage(dict)
	field.Rect = rect
	field.Page = page

	field.Tooltip = e.extractString(dict, "TU")
	field.MappingName = e.extractString(dict, "TM")
	field.DefaultAppearance = e.extractString(dict, "DA")

	if mlObj, found := dict.Find("MaxLen"); found {
		if n, err := e.doc.DereferenceInteger(mlObj); err == nil && n != nil {
			field.MaxLength = *n
		}
	}

	return field
}

func (e *Extractor) extractString(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	str, err := e.doc.DereferenceStringOrHexLiteral(obj)
	if err != nil {
		return ""
	}
	return str
}

func (e *Extractor) extractName(dict types.Dict, fallbackID string) string {
	if tObj, found := dict.Find("T"); found {
		if name, err := e.doc.DereferenceStringOrHexLiteral(tObj); err == nil && name != "" {
			return name
		}
	}
	if tuObj, found := dict.Find("TU"); found {
		if tooltip, err := e.doc.DereferenceStringOrHexLiteral(tuObj); err == nil && tooltip != "" {
			return tooltip
		}
	}
	return "Field_" + fallbackID
}

func (e *Extractor) extractKind(dict types.Dict, inherited Kind) Kind {
	ftObj, found := dict.Find("FT")
	if !found {
		if inherited != "" && inherited != KindUnknown {
			return inherited
		}
		return e.detectKindFromWidget(dict)
	}

	ftName, err := e.doc.DereferenceName(ftObj)
	if err != nil {
		return KindUnknown
	}

	flags := e.extractFlags(dict)

	switch ftName {
	case "Btn":
		switch {
		case flags.RadioBehavior:
			return KindRadio
		case flags.Pushbutton:
			return KindPushbutton
		default:
			return KindCheckbox
		}
	case "Tx":
		return KindText
	case "Ch":
		if flags.Combo {
			return KindDropdown
		}
		return KindListbox
	case "Sig":
		return KindSignature
	default:
		return KindUnknown
	}
}

func (e *Extractor) extractFlags(dict types.Dict) Flags {
	var flags Flags
	flagsObj, found := dict.Find("Ff")
	if !found {
		return flags
	}
	n, err := e.doc.DereferenceInteger(flagsObj)
	if err != nil || n == nil {
		return flags
	}
	v := int64(*n)
	flags.ReadOnly = v&(1<<0) != 0
	flags.Required = v&(1<<1) != 0
	flags.NoExport = v&(1<<2) != 0
	flags.Multiline = v&(1<<12) != 0
	flags.Password = v&(1<<13) != 0
	flags.RadioBehavior = v&(1<<15) != 0
	flags.Pushbutton = v&(1<<16) != 0
	flags.Combo = v&(1<<17) != 0
	return flags
}

func (e *Extractor) extractValue(dict types.Dict, kind Kind) string {
	vObj, found := dict.Find("V")
	if !found {
		vObj, found = dict.Find("DV")
	}
	if !found {
		return ""
	}
	switch kind {
	case KindCheckbox, KindRadio:
		if name, err := e.doc.DereferenceName(vObj); err == nil {
			return name
		}
	}
	if str, err := e.doc.DereferenceStringOrHexLiteral(vObj); err == nil {
		return str
	}
	if name, err := e.doc.DereferenceName(vObj); err == nil {
		return name
	}
	return ""
}

func (e *Extractor) extractOptions(dict types.Dict) []string {
	optObj, found := dict.Find("Opt")
	if !found {
		return nil
	}
	optArr, err := e.doc.DereferenceArray(optObj)
	if err != nil {
		return nil
	}
	var options []string
	for _, opt := range optArr {
		if str, err := e.doc.DereferenceStringOrHexLiteral(opt); err == nil && str != "" {
			options = append(options, str)
			continue
		}
		if arr, err := e.doc.DereferenceArray(opt); err == nil && len(arr) >= 2 {
			if display, err := e.doc.DereferenceStringOrHexLiteral(arr[1]); err == nil {
				options = append(options, display)
			}
		}
	}
	return options
}

func (e *Extractor) extractRectAndPage(dict types.Dict) (Rect, int) {
	rectObj, found := dict.Find("Rect")
	if !found {
		if kidsArr := e.kids(dict); len(kidsArr) > 0 {
			if kidDict, err := e.doc.DereferenceDict(kidsArr[0]); err == nil && kidDict != nil {
				if r, found := kidDict.Find("Rect"); found {
					return e.parseRect(r), e.resolvePage(kidsArr[0])
				}
			}
		}
		e.logger.Tracef("field has no Rect, defaulting to [0,0,0,0]")
		return Rect{}, 1
	}
	return e.parseRect(rectObj), 1
}

func (e *Extractor) parseRect(rectObj types.Object) Rect {
	arr, err := e.doc.DereferenceArray(rectObj)
	if err != nil || len(arr) != 4 {
		e.warnings.AddWarning(pdferrors.New(pdferrors.KindExtractionWarning, "invalid rect, defaulting to [0,0,0,0]"))
		return Rect{}
	}
	var r Rect
	for i, v := range arr {
		f, err := e.doc.DereferenceNumber(v)
		if err != nil {
			e.warnings.AddWarning(pdferrors.New(pdferrors.KindExtractionWarning, "invalid rect coordinate, defaulting to [0,0,0,0]"))
			return Rect{}
		}
		r[i] = f
	}
	return r
}

func (e *Extractor) resolvePage(widgetRef types.Object) int {
	if p, found := e.doc.FindAnnotationPage(widgetRef); found {
		return p
	}
	return 1
}
