// Package rename implements the Modification Planner and Executor (spec.md
// §4.E): translating an external FieldId → NewName mapping into a plan with
// conflict detection and a safety score, then applying it to a freshly
// opened copy of the source document.
//
// Grounded on the teacher's internal/pdf/extraction/forms_pdfcpu.go for the
// field-dict traversal shape, and on the vendored pdfcpu form package's
// in-place dict mutation idiom (d["Ff"] = types.Integer(...)) for how
// renames are written back without a structural document rewrite.
package rename

import (
	"time"

	"github.com/a3tai/pdfrename/internal/fields"
)

// Status is a FieldModification's lifecycle state.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in-progress"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
	StatusRolledBack Status = "rolled-back"
)

// FieldModification is one planned rename.
type FieldModification struct {
	FieldID     string
	OldName     string
	NewName     string
	Kind        fields.Kind
	Page        int
	Rect        fields.Rect
	ParentID    string
	ChildrenIDs []string

	Status    Status
	Reason    string
	Error     string
	Timestamp time.Time
}

// ConflictKind enumerates the planner's conflict categories (spec.md
// §4.E.1).
type ConflictKind string

const (
	ConflictDuplicateTarget ConflictKind = "duplicate-target"
	ConflictNameShape       ConflictKind = "name-shape"
	ConflictHierarchy       ConflictKind = "hierarchy"
)

// Conflict describes one planner-detected problem with the mapping.
type Conflict struct {
	Kind     ConflictKind
	FieldIDs []string
	Detail   string
}

// HierarchyUpdate describes one modification whose field participates in a
// parent/child edge, surfaced for the caller's hierarchy bookkeeping.
type HierarchyUpdate struct {
	FieldID  string
	ParentID string
}

// ModificationPlan is the Planner's output.
type ModificationPlan struct {
	Modifications    []*FieldModification
	Conflicts        []Conflict
	HierarchyUpdates []HierarchyUpdate
	SafetyScore      float64
	CreatedAt        time.Time
}

// HasConflicts reports whether the plan recorded any conflict.
func (p *ModificationPlan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// ModificationResult is the Executor's output.
type ModificationResult struct {
	Success          bool
	AppliedCount     int
	FailedCount      int
	SkippedCount     int
	Modifications    []*FieldModification
	BackupID         string
	ProcessingTime   time.Duration
	Errors           []string
	OutputPath       string
	RolledBack       bool
}
