package hierarchy

import (
	"fmt"
	"sort"

	"github.com/a3tai/pdfrename/internal/fields"
)

// Manager holds an arena of Nodes indexed by field id and the declared root
// order (top-level fields in document order).
type Manager struct {
	nodes    map[string]*Node
	rootIDs  []string
}

// Build constructs a Manager from the extracted field list (spec.md §4.D
// "build"). Orphan references (a parent id not present among the fields) are
// retained as roots.
func Build(fieldList []fields.FormField) *Manager {
	m := &Manager{nodes: make(map[string]*Node, len(fieldList))}
	for _, f := range fieldList {
		children := make([]string, len(f.ChildrenIDs))
		copy(children, f.ChildrenIDs)
		m.nodes[f.ID] = &Node{
			FieldID:     f.ID,
			Name:        f.Name,
			Kind:        f.Kind,
			ParentID:    f.ParentID,
			ChildrenIDs: children,
		}
	}
	for _, n := range m.nodes {
		if n.ParentID == "" || !n.hasParent(m) {
			m.rootIDs = append(m.rootIDs, n.FieldID)
		}
	}
	sort.Strings(m.rootIDs)
	m.recompute()
	return m
}

// recompute walks from every root, assigning depth and qualified name.
func (m *Manager) recompute() {
	visited := map[string]bool{}
	for _, rootID := range m.rootIDs {
		m.walk(rootID, 0, "", visited)
	}
}

func (m *Manager) walk(id string, depth int, parentQualified string, visited map[string]bool) {
	if visited[id] {
		return // cycle; Validate reports it separately
	}
	visited[id] = true
	n, ok := m.nodes[id]
	if !ok {
		return
	}
	n.Depth = depth
	if parentQualified == "" {
		n.QualifiedName = n.Name
	} else {
		n.QualifiedName = parentQualified + "." + n.Name
	}
	for _, childID := range n.ChildrenIDs {
		m.walk(childID, depth+1, n.QualifiedName, visited)
	}
}

// Node returns the node for id, if present.
func (m *Manager) Node(id string) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Nodes returns every node, unordered.
func (m *Manager) Nodes() []*Node {
	out := make([]*Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	return out
}

// ApplyRenames mutates each node's Name according to mapping (field id ->
// new name) and recomputes every qualified name (spec.md §4.D
// "apply_renames").
func (m *Manager) ApplyRenames(mapping map[string]string) {
	for id, newName := range mapping {
		if n, ok := m.nodes[id]; ok {
			n.Name = newName
		}
	}
	m.recompute()
}

// Validate produces a full validation report over the current state of the
// graph (spec.md §4.D "validate").
func (m *Manager) Validate() *Report {
	report := &Report{}

	m.validateOrphans(report)
	m.validateCycles(report)
	m.validateSiblingConflicts(report)
	m.validateQualifiedNameConflicts(report)
	m.validateParentChildSelfConflict(report)
	m.validateMixedTypeRadioGroups(report)
	m.validateBrokenEdges(report)

	return report
}

func (m *Manager) validateOrphans(report *Report) {
	for _, n := range m.nodes {
		if n.ParentID != "" && !n.hasParent(m) {
			report.Orphaned = append(report.Orphaned, ValidationIssue{
				Kind: "orphaned", Severity: "warning",
				FieldIDs: []string{n.FieldID},
				Detail:   fmt.Sprintf("field %s references missing parent %s", n.FieldID, n.ParentID),
			})
		}
	}
	sortIssues(report.Orphaned)
}

// validateCycles finds strongly-connected components of size > 1 via DFS
// with an explicit recursion-stack set, per spec.md §9.
func (m *Manager) validateCycles(report *Report) {
	state := map[string]int{} // 0=unvisited,1=in-stack,2=done
	var stack []string
	var dfs func(id string)
	seenCycleIDs := map[string]bool{}

	dfs = func(id string) {
		n, ok := m.nodes[id]
		if !ok {
			return
		}
		state[id] = 1
		stack = append(stack, id)
		for _, childID := range n.ChildrenIDs {
			switch state[childID] {
			case 0:
				dfs(childID)
			case 1:
				// Found a back edge into the current recursion stack: every
				// node from childID onward in stack forms a cycle.
				start := -1
				for i, s := range stack {
					if s == childID {
						start = i
						break
					}
				}
				if start >= 0 {
					cyc := append([]string{}, stack[start:]...)
					key := cycleKey(cyc)
					if !seenCycleIDs[key] {
						seenCycleIDs[key] = true
						report.Cycles = append(report.Cycles, ValidationIssue{
							Kind: "cycle", Severity: "critical",
							FieldIDs: cyc,
							Detail:   fmt.Sprintf("cycle detected among fields %v", cyc),
						})
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = 2
	}

	ids := make([]string, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if state[id] == 0 {
			dfs(id)
		}
	}
	sortIssues(report.Cycles)
}

func cycleKey(ids []string) string {
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)
	key := ""
	for _, id := range sorted {
		key += id + ","
	}
	return key
}

func (m *Manager) validateSiblingConflicts(report *Report) {
	for _, n := range m.nodes {
		seen := map[string][]string{}
		for _, childID := range n.ChildrenIDs {
			child, ok := m.nodes[childID]
			if !ok {
				continue
			}
			seen[child.Name] = append(seen[child.Name], childID)
		}
		for name, ids := range seen {
			if len(ids) > 1 {
				sort.Strings(ids)
				report.SiblingConflicts = append(report.SiblingConflicts, ValidationIssue{
					Kind: "sibling-conflict", Severity: "critical",
					FieldIDs: ids,
					Detail:   fmt.Sprintf("duplicate sibling name %q under parent %s", name, n.FieldID),
				})
			}
		}
	}
	sortIssues(report.SiblingConflicts)
}

func (m *Manager) validateQualifiedNameConflicts(report *Report) {
	seen := map[string][]string{}
	for _, n := range m.nodes {
		seen[n.QualifiedName] = append(seen[n.QualifiedName], n.FieldID)
	}
	for qname, ids := range seen {
		if len(ids) > 1 {
			sort.Strings(ids)
			report.QualifiedNameConflicts = append(report.QualifiedNameConflicts, ValidationIssue{
				Kind: "qualified-name-conflict", Severity: "critical",
				FieldIDs: ids,
				Detail:   fmt.Sprintf("duplicate qualified name %q", qname),
			})
		}
	}
	sortIssues(report.QualifiedNameConflicts)
}

func (m *Manager) validateParentChildSelfConflict(report *Report) {
	for _, n := range m.nodes {
		for _, childID := range n.ChildrenIDs {
			child, ok := m.nodes[childID]
			if !ok {
				continue
			}
			if child.Name == n.Name {
				report.ParentChildSelfConflict = append(report.ParentChildSelfConflict, ValidationIssue{
					Kind: "parent-child-self-conflict", Severity: "warning",
					FieldIDs: []string{n.FieldID, child.FieldID},
					Detail:   fmt.Sprintf("parent %s and child %s share name %q", n.FieldID, child.FieldID, n.Name),
				})
			}
		}
	}
	sortIssues(report.ParentChildSelfConflict)
}

func (m *Manager) validateMixedTypeRadioGroups(report *Report) {
	for _, n := range m.nodes {
		if n.Kind != fields.KindRadio || len(n.ChildrenIDs) == 0 {
			continue
		}
		var firstKind fields.Kind
		mixed := false
		for _, childID := range n.ChildrenIDs {
			child, ok := m.nodes[childID]
			if !ok {
				continue
			}
			if firstKind == "" {
				firstKind = child.Kind
				continue
			}
			if child.Kind != firstKind {
				mixed = true
			}
		}
		if mixed {
			report.MixedTypeRadioGroups = append(report.MixedTypeRadioGroups, ValidationIssue{
				Kind: "mixed-type-radio-group", Severity: "warning",
				FieldIDs: append([]string{n.FieldID}, n.ChildrenIDs...),
				Detail:   fmt.Sprintf("radio group %s has children of mixed kind", n.FieldID),
			})
		}
	}
	sortIssues(report.MixedTypeRadioGroups)
}

func (m *Manager) validateBrokenEdges(report *Report) {
	for _, n := range m.nodes {
		for _, childID := range n.ChildrenIDs {
			child, ok := m.nodes[childID]
			if !ok {
				report.BrokenEdges = append(report.BrokenEdges, ValidationIssue{
					Kind: "broken-edge", Severity: "critical",
					FieldIDs: []string{n.FieldID, childID},
					Detail:   fmt.Sprintf("parent %s lists missing child %s", n.FieldID, childID),
				})
				continue
			}
			if child.ParentID != n.FieldID {
				report.BrokenEdges = append(report.BrokenEdges, ValidationIssue{
					Kind: "broken-edge", Severity: "critical",
					FieldIDs: []string{n.FieldID, childID},
					Detail:   fmt.Sprintf("child %s's parent_id %q does not match declaring parent %s", childID, child.ParentID, n.FieldID),
				})
			}
		}
	}
	sortIssues(report.BrokenEdges)
}

func sortIssues(issues []ValidationIssue) {
	sort.Slice(issues, func(i, j int) bool {
		if len(issues[i].FieldIDs) == 0 || len(issues[j].FieldIDs) == 0 {
			return len(issues[i].FieldIDs) < len(issues[j].FieldIDs)
		}
		return issues[i].FieldIDs[0] < issues[j].FieldIDs[0]
	})
}

// Propose is a dry-run variant: it applies mapping, validates, reverts every
// renamed node back to its prior name, and returns only the conflict list
// (spec.md §4.D "propose").
func (m *Manager) Propose(mapping map[string]string) *Report {
	previous := make(map[string]string, len(mapping))
	for id := range mapping {
		if n, ok := m.nodes[id]; ok {
			previous[id] = n.Name
		}
	}

	m.ApplyRenames(mapping)
	report := m.Validate()

	m.ApplyRenames(previous)
	return report
}
