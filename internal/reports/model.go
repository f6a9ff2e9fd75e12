// Package reports implements the pipeline's four output artifacts (spec.md
// §6.2): the modification report, the modification summary CSV, the
// database-ready CSV, and the validation report.
//
// Grounded on the teacher's internal/intelligence package, which marshals
// its own analysis results to JSON with encoding/json for MCP tool
// responses; this package does the equivalent for the rename pipeline's
// terminal artifacts. CSV writing follows the same "stdlib is the right
// tool" judgment: neither the teacher nor any other example repo in the
// pack imports a third-party CSV library, so encoding/csv is used directly
// (documented in DESIGN.md).
package reports

import (
	"time"

	"github.com/a3tai/pdfrename/internal/fields"
	"github.com/a3tai/pdfrename/internal/hierarchy"
	"github.com/a3tai/pdfrename/internal/integrity"
	"github.com/a3tai/pdfrename/internal/rename"
)

// PreservationAction tags why a rename was chosen, for reporting only
// (spec.md GLOSSARY). The mapping carries no tag from the naming engine, so
// it is always derived heuristically from the old and new names.
type PreservationAction string

const (
	ActionPreserve    PreservationAction = "preserve"
	ActionImprove     PreservationAction = "improve"
	ActionRestructure PreservationAction = "restructure"
)

// PreservationStats summarizes how much of a field's shape survived a run
// (spec.md §8.1's rect/kind/page/parent/children invariants).
type PreservationStats struct {
	TotalFields          int
	RenamedFields         int
	UnchangedFields       int
	PreservedProperties   int
	TotalPropertiesChecked int
}

// HierarchySummary folds a hierarchy.Report into counts suitable for the
// modification report's JSON body.
type HierarchySummary struct {
	OrphanedCount              int
	CycleCount                 int
	SiblingConflictCount       int
	QualifiedNameConflictCount int
	MixedTypeRadioGroupCount   int
	HasCritical                bool
}

// ModificationReport is the structured JSON body written to
// <stem>_modification_report.json (spec.md §6.2).
type ModificationReport struct {
	GeneratedAt    time.Time               `json:"generated_at"`
	Success        bool                    `json:"success"`
	AppliedCount   int                     `json:"applied_count"`
	FailedCount    int                     `json:"failed_count"`
	SkippedCount   int                     `json:"skipped_count"`
	RolledBack     bool                    `json:"rolled_back"`
	BackupID       string                  `json:"backup_id,omitempty"`
	OutputPath     string                  `json:"output_path,omitempty"`
	ProcessingTime string                  `json:"processing_time"`
	Errors         []string                `json:"errors,omitempty"`
	Modifications  []*rename.FieldModification `json:"modifications"`
	Preservation   PreservationStats       `json:"preservation"`
	Hierarchy      HierarchySummary        `json:"hierarchy"`
}

// ValidationReportDoc is the structured JSON body written to
// <stem>_validation_report.json: the IntegrityReport plus a one-line safety
// assessment (spec.md §6.2).
type ValidationReportDoc struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Report      *integrity.Report `json:"report"`
	Assessment  string           `json:"assessment"`
}

// BuildHierarchySummary folds a hierarchy.Report into a HierarchySummary.
func BuildHierarchySummary(r *hierarchy.Report) HierarchySummary {
	if r == nil {
		return HierarchySummary{}
	}
	return HierarchySummary{
		OrphanedCount:              len(r.Orphaned),
		CycleCount:                 len(r.Cycles),
		SiblingConflictCount:       len(r.SiblingConflicts),
		QualifiedNameConflictCount: len(r.QualifiedNameConflicts),
		MixedTypeRadioGroupCount:   len(r.MixedTypeRadioGroups),
		HasCritical:                r.HasCritical(),
	}
}

// derivePreservationAction tags a modification by comparing its old and new
// names; the modification's Reason is not consulted.
func derivePreservationAction(mod *rename.FieldModification) PreservationAction {
	switch {
	case mod.OldName == mod.NewName:
		return ActionPreserve
	case sameStem(mod.OldName, mod.NewName):
		return ActionImprove
	default:
		return ActionRestructure
	}
}

// sameStem is a coarse heuristic: names sharing a case-insensitive
// alphanumeric core (ignoring separators) are considered an "improve"
// rather than a full "restructure".
func sameStem(a, b string) bool {
	return stripSeparators(a) == stripSeparators(b)
}

func stripSeparators(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '_', '-', ' ':
			continue
		default:
			if r >= 'A' && r <= 'Z' {
				r = r + ('a' - 'A')
			}
			out = append(out, r)
		}
	}
	return string(out)
}

// databaseFieldType maps a fields.Kind to the fixed database-column type
// vocabulary (spec.md §6.2).
func databaseFieldType(k fields.Kind) string {
	switch k {
	case fields.KindText:
		return "TextField"
	case fields.KindCheckbox:
		return "Checkbox"
	case fields.KindRadio:
		return "RadioButton"
	case fields.KindDropdown, fields.KindListbox:
		return "Choice"
	case fields.KindSignature:
		return "Signature"
	case fields.KindPushbutton:
		return "Button"
	default:
		return "TextField"
	}
}
