package integrity

import (
	"math"

	"github.com/a3tai/pdfrename/internal/fields"
	"github.com/a3tai/pdfrename/internal/pdferrors"
	"github.com/a3tai/pdfrename/internal/pdfmodel"
)

const rectTolerance = 1.0

// Source is the read-only surface the Integrity Validator needs from a
// (re-opened) PDF document. *pdfmodel.Document satisfies it directly; tests
// substitute a fake so the scoring and comparison logic below can be
// exercised without a byte-accurate PDF fixture.
type Source interface {
	pdfmodel.Resolver
	Version() string
	PageCount() int
	ObjectCount() int
	HasAcroForm() bool
}

var _ Source = (*pdfmodel.Document)(nil)

// Validator runs the four sub-checks and folds them into a Report.
type Validator struct {
	logger *pdferrors.Logger
}

// NewValidator builds a Validator. A nil logger discards trace output.
func NewValidator(logger *pdferrors.Logger) *Validator {
	if logger == nil {
		logger = pdferrors.Discard()
	}
	return &Validator{logger: logger}
}

// Validate inspects mutated and, when available, compares it against
// originalFields (the pre-mutation extraction) and originalPageCount
// (0 meaning "unknown", which skips the visual sub-check's page-count
// comparison) (spec.md §4.F.2).
func (v *Validator) Validate(mutated Source, originalFields []fields.FormField, originalPageCount int) *Report {
	report := &Report{}

	structure, mutatedFields := v.checkStructure(mutated)
	report.Structure = structure

	if originalFields != nil {
		functionality := v.checkFunctionality(mutatedFields, originalFields)
		report.Functionality = functionality
		visual := v.checkVisual(mutatedFields, originalFields, mutated.PageCount(), originalPageCount)
		report.Visual = visual
	}

	report.Accessibility = v.checkAccessibility(mutatedFields)

	report.SafetyScore = computeSafetyScore(report)
	report.OverallStatus = overallStatus(report)
	return report
}

// checkStructure implements spec.md §4.F.2 sub-check 1. It never panics: any
// failure degrades to Valid=false plus a warning rather than propagating.
func (v *Validator) checkStructure(mutated Source) (StructureReport, []fields.FormField) {
	report := StructureReport{Valid: true}
	if mutated == nil {
		report.Valid = false
		report.Warnings = append(report.Warnings, "mutated document unavailable")
		return report, nil
	}

	report.Version = mutated.Version()
	report.PageCount = mutated.PageCount()
	report.ObjectCount = mutated.ObjectCount()
	report.HasAcroForm = mutated.HasAcroForm()

	if report.PageCount < 1 {
		report.Valid = false
		report.Warnings = append(report.Warnings, "document has no readable pages")
	}

	extractor := fields.NewExtractor(mutated, v.logger)
	mutatedFields, warnings, err := extractor.Extract()
	if err != nil {
		report.Valid = false
		report.Warnings = append(report.Warnings, "field re-extraction failed: "+err.Error())
		return report, nil
	}
	if warnings != nil && warnings.HasIssues() {
		report.Warnings = append(report.Warnings, warnings.Summary())
	}
	return report, mutatedFields
}

// checkFunctionality implements spec.md §4.F.2 sub-check 2.
func (v *Validator) checkFunctionality(mutatedFields, originalFields []fields.FormField) *FunctionalityReport {
	report := &FunctionalityReport{Functional: true, FieldCountMatch: true}

	byID := make(map[string]fields.FormField, len(mutatedFields))
	for _, f := range mutatedFields {
		byID[f.ID] = f
	}

	if len(mutatedFields) != len(originalFields) {
		report.FieldCountMatch = false
		report.Functional = false
	}

	for _, orig := range originalFields {
		mutated, ok := byID[orig.ID]
		if !ok {
			report.MissingIDs = append(report.MissingIDs, orig.ID)
			continue
		}

		checks := []bool{
			mutated.Kind == orig.Kind,
			mutated.Page == orig.Page,
			rectEqual(mutated.Rect, orig.Rect),
			mutated.Value == orig.Value,
			mutated.ParentID == orig.ParentID,
			stringSliceEqual(mutated.ChildrenIDs, orig.ChildrenIDs),
		}
		report.TotalPropertiesChecked += len(checks)
		broken := 0
		for _, ok := range checks {
			if ok {
				report.PreservedProperties++
			} else {
				broken++
			}
		}
		if broken > 0 {
			report.BrokenFieldIDs = append(report.BrokenFieldIDs, orig.ID)
		}

		if orig.DefaultAppearance != "" || orig.MappingName != "" {
			report.HasAdvancedFormFeatures = true
		}
	}

	if len(report.MissingIDs) > 0 || len(report.BrokenFieldIDs) > 0 {
		report.Functional = false
	}

	return report
}

// checkAccessibility implements spec.md §4.F.2 sub-check 3.
func (v *Validator) checkAccessibility(mutatedFields []fields.FormField) AccessibilityReport {
	report := AccessibilityReport{}
	for _, f := range mutatedFields {
		if f.Name == "" {
			report.FieldsWithoutName++
		}
		if f.Tooltip != "" {
			report.FieldsWithTooltip++
		}
	}
	if len(mutatedFields) == 0 {
		report.Issues = append(report.Issues, "document has zero form fields")
	}
	if report.FieldsWithoutName > 0 {
		report.Warnings = append(report.Warnings, "some fields lack a name")
	}
	return report
}

// checkVisual implements spec.md §4.F.2 sub-check 4.
func (v *Validator) checkVisual(mutatedFields, originalFields []fields.FormField, mutatedPageCount, originalPageCount int) *VisualReport {
	report := &VisualReport{LayoutPreserved: true, CoordinatesUnchanged: true, PageCountMatch: true}

	if originalPageCount > 0 && mutatedPageCount != originalPageCount {
		report.PageCountMatch = false
		report.LayoutPreserved = false
	}

	byID := make(map[string]fields.FormField, len(mutatedFields))
	for _, f := range mutatedFields {
		byID[f.ID] = f
	}

	for _, orig := range originalFields {
		mutated, ok := byID[orig.ID]
		if !ok {
			continue
		}
		if mutated.Page != orig.Page {
			report.LayoutPreserved = false
			report.VisualDifferences = append(report.VisualDifferences, orig.ID+": page changed")
		}
		if !rectEqual(mutated.Rect, orig.Rect) {
			report.CoordinatesUnchanged = false
			report.CoordinateVariations = append(report.CoordinateVariations, orig.ID)
		}
	}

	return report
}

func rectEqual(a, b fields.Rect) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > rectTolerance {
			return false
		}
	}
	return true
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// computeSafetyScore implements spec.md §4.F.2's scoring formula.
func computeSafetyScore(r *Report) float64 {
	score := 1.0

	if !r.Structure.Valid {
		score -= 0.30
	} else {
		penalty := 0.05 * float64(len(r.Structure.Warnings))
		if penalty > 0.30 {
			penalty = 0.30
		}
		score -= penalty
	}

	if r.Functionality != nil {
		if !r.Functionality.Functional {
			score -= 0.40
		} else if !r.Functionality.FieldCountMatch {
			score -= 0.20
		} else {
			penalty := 0.10 * float64(len(r.Functionality.BrokenFieldIDs))
			if penalty > 0.40 {
				penalty = 0.40
			}
			score -= penalty
		}
	}

	accessibilityIssues := len(r.Accessibility.Issues)
	penalty := 0.03 * float64(accessibilityIssues)
	if penalty > 0.15 {
		penalty = 0.15
	}
	score -= penalty

	if r.Visual != nil {
		if !r.Visual.LayoutPreserved {
			score -= 0.10
		} else if !r.Visual.CoordinatesUnchanged {
			score -= 0.05
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// overallStatus implements spec.md §4.F.2's threshold table.
func overallStatus(r *Report) Status {
	critical := 0
	if !r.Structure.Valid {
		critical++
	}
	if r.Functionality != nil && !r.Functionality.Functional {
		critical++
	}
	critical += len(r.Accessibility.Issues)

	switch {
	case critical > 5 || r.SafetyScore < 0.30:
		return StatusCritical
	case critical > 2 || r.SafetyScore < 0.60:
		return StatusPoor
	case critical > 0 || r.SafetyScore < 0.80:
		return StatusAcceptable
	case r.SafetyScore < 0.95:
		return StatusGood
	default:
		return StatusExcellent
	}
}
