package rename

import (
	"regexp"
	"sort"
	"time"

	"github.com/a3tai/pdfrename/internal/fields"
	"github.com/a3tai/pdfrename/internal/hierarchy"
)

// nameShapePattern implements the stricter form of spec.md §6.3's wire
// contract (spec.md §4.E.1, §9): block[_element][__modifier], each segment
// lowercase, hyphens as intra-segment separators only. Written without a
// lookahead (Go's RE2 engine does not support one); a hyphen is always
// required to be followed by [a-z0-9]+, which already forbids doubled or
// trailing hyphens.
var nameShapePattern = regexp.MustCompile(
	`^[a-z][a-z0-9]*(-[a-z0-9]+)*(_[a-z][a-z0-9]*(-[a-z0-9]+)*)?(__[a-z][a-z0-9]*(-[a-z0-9]+)*)?$`,
)

// ValidNameShape reports whether name satisfies the naming convention.
func ValidNameShape(name string) bool {
	return nameShapePattern.MatchString(name)
}

// Planner turns a FieldId -> NewName mapping into a ModificationPlan.
type Planner struct{}

// NewPlanner returns a Planner. It holds no state; the signature exists to
// match the teacher's constructor convention for stateless services.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan builds a ModificationPlan (spec.md §4.E.1). hm must already be built
// from fieldList; Plan calls hm.Propose(mapping) for cross-validation and
// leaves hm's own state untouched.
func (p *Planner) Plan(fieldList []fields.FormField, mapping map[string]string, hm *hierarchy.Manager) *ModificationPlan {
	byID := make(map[string]fields.FormField, len(fieldList))
	for _, f := range fieldList {
		byID[f.ID] = f
	}

	plan := &ModificationPlan{CreatedAt: time.Now(), SafetyScore: 1.0}

	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	targetCounts := map[string][]string{}
	for _, id := range ids {
		newName := mapping[id]
		f, ok := byID[id]
		if !ok {
			continue // unknown field id: skipped silently per spec.md §4.E.1
		}
		mod := &FieldModification{
			FieldID:     id,
			OldName:     f.Name,
			NewName:     newName,
			Kind:        f.Kind,
			Page:        f.Page,
			Rect:        f.Rect,
			ParentID:    f.ParentID,
			ChildrenIDs: f.ChildrenIDs,
			Status:      StatusPlanned,
		}
		plan.Modifications = append(plan.Modifications, mod)
		targetCounts[newName] = append(targetCounts[newName], id)

		if f.ParentID != "" || len(f.ChildrenIDs) > 0 {
			plan.HierarchyUpdates = append(plan.HierarchyUpdates, HierarchyUpdate{FieldID: id, ParentID: f.ParentID})
		}
	}

	for name, fieldIDs := range targetCounts {
		if len(fieldIDs) > 1 {
			sort.Strings(fieldIDs)
			plan.Conflicts = append(plan.Conflicts, Conflict{
				Kind: ConflictDuplicateTarget, FieldIDs: fieldIDs,
				Detail: "multiple fields targeted at name " + name,
			})
		}
	}

	for _, mod := range plan.Modifications {
		if !ValidNameShape(mod.NewName) {
			plan.Conflicts = append(plan.Conflicts, Conflict{
				Kind: ConflictNameShape, FieldIDs: []string{mod.FieldID},
				Detail: "name does not satisfy naming convention: " + mod.NewName,
			})
		}
	}

	if hm != nil {
		hreport := hm.Propose(mapping)
		for _, issue := range hreport.All() {
			plan.Conflicts = append(plan.Conflicts, Conflict{
				Kind: ConflictHierarchy, FieldIDs: issue.FieldIDs,
				Detail: issue.Detail,
			})
		}
	}

	sort.Slice(plan.Conflicts, func(i, j int) bool {
		return string(plan.Conflicts[i].Kind) < string(plan.Conflicts[j].Kind)
	})

	plan.SafetyScore = computeSafetyScore(plan)
	return plan
}

// computeSafetyScore implements spec.md §4.E.1's scoring formula.
func computeSafetyScore(plan *ModificationPlan) float64 {
	score := 1.0
	score -= 0.1 * float64(len(plan.Conflicts))
	for _, mod := range plan.Modifications {
		if mod.Kind == fields.KindSignature || mod.Kind == fields.KindPushbutton {
			score -= 0.05
		}
		if mod.ParentID != "" || len(mod.ChildrenIDs) > 0 {
			score -= 0.02
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
