package rename

import (
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdfrename/internal/backup"
	"github.com/a3tai/pdfrename/internal/integrity"
	"github.com/a3tai/pdfrename/internal/pdferrors"
	"github.com/a3tai/pdfrename/internal/pdfmodel"
)

// MutableDoc is the surface the Executor needs from a document it is about
// to mutate: dereferencing returns the live, mutable object (a types.Dict is
// a Go map, so writing into it mutates the document's in-memory graph
// directly, mirroring the vendored pdfcpu form package's d["Ff"] = ...
// idiom), plus a final WriteTo to serialize the result.
type MutableDoc interface {
	pdfmodel.Resolver
	WriteTo(path string) error
}

var _ MutableDoc = (*pdfmodel.Document)(nil)

// Executor applies a ModificationPlan's modifications to a freshly opened
// copy of the source document (spec.md §4.E.2). Opening a dedicated
// Document per run is this pipeline's answer to spec.md §9's "clone on
// write" requirement: the planning-phase Document (used by the Extractor,
// Context Extractor, and Hierarchy Manager) is never the one mutated here,
// so no in-memory object is ever aliased between a read-only view and a
// written one.
type Executor struct {
	backupSvc  *backup.Service
	validator  *integrity.Validator
	logger     *pdferrors.Logger
}

// NewExecutor builds an Executor. backupSvc may be nil to disable backups.
// validator is stored but never called by Run, and may be nil; Run attaches
// no integrity report to its result (internal/pipeline runs the integrity
// pass itself after Run returns).
func NewExecutor(backupSvc *backup.Service, validator *integrity.Validator, logger *pdferrors.Logger) *Executor {
	if logger == nil {
		logger = pdferrors.Discard()
	}
	return &Executor{backupSvc: backupSvc, validator: validator, logger: logger}
}

// Run applies plan.Modifications against doc, writing the result to
// outputPath unless dryRun is set. sourcePath is used to create the
// pre-mutation backup and as the restore target on rollback. Run performs
// no integrity validation of the written file.
func (e *Executor) Run(
	doc MutableDoc,
	plan *ModificationPlan,
	sourcePath, outputPath string,
	dryRun, backupEnabled bool,
) (*ModificationResult, error) {
	start := time.Now()
	result := &ModificationResult{Modifications: plan.Modifications}

	if !dryRun && backupEnabled && e.backupSvc != nil {
		rec, err := e.backupSvc.Create(sourcePath, "pre-rename snapshot")
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			result.ProcessingTime = time.Since(start)
			return result, err
		}
		result.BackupID = rec.BackupID
	}

	byID := map[string]*FieldModification{}
	for _, mod := range plan.Modifications {
		byID[mod.FieldID] = mod
	}

	topLevel, err := doc.AcroFormFields()
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.ProcessingTime = time.Since(start)
		return result, pdferrors.Wrap(pdferrors.KindModificationCritical, err)
	}

	critical := e.applyTree(doc, topLevel, byID, dryRun)
	if critical != nil {
		result.Errors = append(result.Errors, critical.Error())
		if !dryRun && e.backupSvc != nil && result.BackupID != "" {
			if _, rerr := e.backupSvc.Restore(result.BackupID, sourcePath); rerr == nil {
				result.RolledBack = true
			}
		}
		for _, mod := range plan.Modifications {
			if mod.Status == StatusPlanned || mod.Status == StatusInProgress {
				mod.Status = StatusRolledBack
			}
		}
		result.Success = false
		result.ProcessingTime = time.Since(start)
		return result, critical
	}

	for _, mod := range plan.Modifications {
		switch mod.Status {
		case StatusSuccess:
			result.AppliedCount++
		case StatusFailed:
			result.FailedCount++
			result.Errors = append(result.Errors, mod.Error)
		case StatusPlanned:
			mod.Status = StatusSkipped
			result.SkippedCount++
		}
	}

	if !dryRun && result.AppliedCount > 0 {
		if err := doc.WriteTo(outputPath); err != nil {
			result.Errors = append(result.Errors, err.Error())
			if e.backupSvc != nil && result.BackupID != "" {
				if _, rerr := e.backupSvc.Restore(result.BackupID, sourcePath); rerr == nil {
					result.RolledBack = true
				}
			}
			for _, mod := range plan.Modifications {
				if mod.Status == StatusSuccess {
					mod.Status = StatusRolledBack
				}
			}
			result.Success = false
			result.ProcessingTime = time.Since(start)
			return result, pdferrors.Wrap(pdferrors.KindModificationCritical, err)
		}
		result.OutputPath = outputPath
	}

	result.Success = result.FailedCount == 0
	result.ProcessingTime = time.Since(start)
	return result, nil
}

// applyTree walks the (already-cloned, per spec.md §9) top-level fields
// array. It mirrors internal/fields.Extractor's parse-hierarchy grouping
// exactly (any field with a non-empty Kids array is a group, regardless of
// whether its kids carry their own T) so that the composite ids derived
// here always match the ones the planner's mapping was built against.
func (e *Executor) applyTree(doc pdfmodel.Resolver, arr types.Array, byID map[string]*FieldModification, dryRun bool) error {
	for i, obj := range arr {
		id := fmt.Sprintf("field_%06d", i)
		if err := e.applyHierarchy(doc, obj, id, byID, dryRun); err != nil {
			return err
		}
	}
	return nil
}

// applyHierarchy mirrors Extractor.parseHierarchy: a non-empty Kids array
// means this node is a group container, handled by applyGroup; otherwise
// it's a leaf field.
func (e *Executor) applyHierarchy(doc pdfmodel.Resolver, obj types.Object, id string, byID map[string]*FieldModification, dryRun bool) error {
	dict, err := doc.DereferenceDict(obj)
	if err != nil || dict == nil {
		return nil // unreadable node: leave untouched, not a critical failure
	}

	if kidsArr := kidsOf(doc, dict); len(kidsArr) > 0 {
		return e.applyGroup(doc, dict, id, kidsArr, byID, dryRun)
	}

	return e.applyLeaf(dict, id, byID, dryRun)
}

// applyGroup mirrors Extractor.emitGroup: the parent dict itself may match a
// mapping entry (group containers are addressable like any other field),
// and each kid is dispatched through applyWidgetOrSubfield with a composite
// id identical to the one the Extractor assigned it.
func (e *Executor) applyGroup(doc pdfmodel.Resolver, dict types.Dict, id string, kids types.Array, byID map[string]*FieldModification, dryRun bool) error {
	if err := e.applyLeaf(dict, id, byID, dryRun); err != nil {
		return err
	}
	for ci, kidObj := range kids {
		childID := fmt.Sprintf("%s_%d", id, ci)
		if err := e.applyWidgetOrSubfield(doc, kidObj, childID, byID, dryRun); err != nil {
			return err
		}
	}
	return nil
}

// applyWidgetOrSubfield mirrors Extractor.parseWidgetOrSubfield: a kid with
// its own T entry may itself be a nested group; a bare widget annotation is
// always a leaf (renaming it adds a T entry, converting it into a named
// sub-field).
func (e *Executor) applyWidgetOrSubfield(doc pdfmodel.Resolver, obj types.Object, id string, byID map[string]*FieldModification, dryRun bool) error {
	dict, err := doc.DereferenceDict(obj)
	if err != nil || dict == nil {
		return nil
	}

	if _, hasT := dict.Find("T"); hasT {
		if nestedKids := kidsOf(doc, dict); len(nestedKids) > 0 {
			return e.applyGroup(doc, dict, id, nestedKids, byID, dryRun)
		}
	}

	return e.applyLeaf(dict, id, byID, dryRun)
}

// applyLeaf applies byID[id]'s rename, if any, directly to dict.
func (e *Executor) applyLeaf(dict types.Dict, id string, byID map[string]*FieldModification, dryRun bool) error {
	mod, ok := byID[id]
	if !ok {
		return nil
	}

	mod.Status = StatusInProgress
	if dryRun {
		mod.Status = StatusSuccess
		mod.Timestamp = time.Now()
		return nil
	}
	if err := setFieldName(dict, mod.NewName); err != nil {
		mod.Status = StatusFailed
		mod.Error = err.Error()
		return nil
	}
	mod.Status = StatusSuccess
	mod.Timestamp = time.Now()
	return nil
}

// kidsOf resolves dict's Kids entry, if present, mirroring
// internal/fields.Extractor.kids.
func kidsOf(doc pdfmodel.Resolver, dict types.Dict) types.Array {
	kidsObj, found := dict.Find("Kids")
	if !found {
		return nil
	}
	arr, err := doc.DereferenceArray(kidsObj)
	if err != nil {
		return nil
	}
	return arr
}

// setFieldName overwrites the T entry with a text-string object, per
// spec.md §4.E.2 and §9 ("not a name object" — mixing encodings silently
// breaks viewers).
func setFieldName(dict types.Dict, newName string) error {
	dict["T"] = types.StringLiteral(newName)
	return nil
}
