// Package hierarchy implements the Hierarchy Manager (spec.md §4.D): a
// second, pure in-memory view of field relationships independent of the
// document's native structure, used to validate proposed renames before the
// Executor touches the PDF.
//
// Grounded on the teacher's internal/intelligence/structure.go, which builds
// a similar parent/child tree over extracted fields for classification;
// generalized here into an arena-of-nodes graph with explicit cycle and
// qualified-name validation per spec.md §4.D and §9.
package hierarchy

import "github.com/a3tai/pdfrename/internal/fields"

// Node is a view of one FormField inside the hierarchy graph.
type Node struct {
	FieldID       string
	Name          string
	Kind          fields.Kind
	ParentID      string
	ChildrenIDs   []string
	Depth         int
	QualifiedName string
}

// hasParent reports whether this node's declared parent exists among the
// hierarchy's nodes (vs. being orphaned or a true root).
func (n *Node) hasParent(m *Manager) bool {
	if n.ParentID == "" {
		return false
	}
	_, ok := m.nodes[n.ParentID]
	return ok
}

// ValidationIssue describes one finding from Manager.Validate.
type ValidationIssue struct {
	Kind     string // orphaned | cycle | sibling-conflict | qualified-name-conflict | parent-child-self-conflict | mixed-type-radio-group | broken-edge
	Severity string // critical | warning
	FieldIDs []string
	Detail   string
}

// Report is the result of Manager.Validate.
type Report struct {
	Orphaned                []ValidationIssue
	Cycles                  []ValidationIssue
	SiblingConflicts        []ValidationIssue
	QualifiedNameConflicts  []ValidationIssue
	ParentChildSelfConflict []ValidationIssue
	MixedTypeRadioGroups    []ValidationIssue
	BrokenEdges             []ValidationIssue
}

// HasCritical reports whether the report contains a cycle or a
// qualified-name conflict (spec.md §4.D). Sibling conflicts and broken
// edges also carry Severity "critical" but are not counted here.
func (r *Report) HasCritical() bool {
	return len(r.Cycles) > 0 || len(r.QualifiedNameConflicts) > 0
}

// All returns every issue across all categories, most-critical first.
func (r *Report) All() []ValidationIssue {
	var all []ValidationIssue
	all = append(all, r.Cycles...)
	all = append(all, r.QualifiedNameConflicts...)
	all = append(all, r.Orphaned...)
	all = append(all, r.SiblingConflicts...)
	all = append(all, r.ParentChildSelfConflict...)
	all = append(all, r.MixedTypeRadioGroups...)
	all = append(all, r.BrokenEdges...)
	return all
}
