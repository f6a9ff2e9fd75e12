// Package pipeline wires the Loader, Field Extractor, Context Extractor,
// Hierarchy Manager, Modification Planner, Executor, Integrity Validator,
// and Reports stages into the single control flow spec.md §2 describes:
// A (load) -> B (extract fields) -> C (derive context) -> [external naming
// mapping] -> D (plan) -> E (execute) -> F (validate), with report writing
// as a terminal step.
//
// Grounded on the teacher's internal/pdf/service.go, which sequences its
// own Loader -> extraction -> formatting stages behind one exported entry
// point and returns a single aggregate result rather than letting callers
// juggle intermediate state.
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/a3tai/pdfrename/internal/backup"
	pdfcontext "github.com/a3tai/pdfrename/internal/context"
	"github.com/a3tai/pdfrename/internal/fields"
	"github.com/a3tai/pdfrename/internal/hierarchy"
	"github.com/a3tai/pdfrename/internal/integrity"
	"github.com/a3tai/pdfrename/internal/pdferrors"
	"github.com/a3tai/pdfrename/internal/pdfmodel"
	"github.com/a3tai/pdfrename/internal/rename"
	"github.com/a3tai/pdfrename/internal/reports"
)

// Config describes one end-to-end run.
type Config struct {
	InputPath     string
	Credential    string
	OutputDir     string
	BackupDir     string
	Mapping       map[string]string
	DryRun        bool
	BackupEnabled bool
	// DeriveContext controls whether the Context Extractor's (optional,
	// best-effort) label/section derivation runs. It never blocks the
	// rename pipeline: a text-extraction failure degrades to empty
	// contexts rather than aborting the run.
	DeriveContext bool
}

// Result is everything a caller might want to inspect or report on after a
// run.
type Result struct {
	Fields           []fields.FormField
	Warnings         *pdferrors.Collection
	Contexts         []pdfcontext.FieldContext
	HierarchyReport  *hierarchy.Report
	Plan             *rename.ModificationPlan
	ExecResult       *rename.ModificationResult
	ValidationReport *integrity.Report
	ReportPaths      ReportPaths
}

// ReportPaths records where each of spec.md §6.2's output artifacts was
// written.
type ReportPaths struct {
	ModifiedPDF        string
	ModificationReport string
	ModificationCSV    string
	DatabaseCSV        string
	ValidationReport   string
}

// Run executes the full A->B->C->D->E->F control flow and writes every
// output artifact spec.md §6.2 names.
func Run(cfg Config, logger *pdferrors.Logger) (*Result, error) {
	if logger == nil {
		logger = pdferrors.Discard()
	}

	// Stage A: Loader. Two independent opens of the same source: planningDoc
	// is the read-only view every upstream stage traverses; mutateDoc is a
	// distinct Document the Executor alone mutates, answering spec.md §9's
	// "clone on write" requirement by construction (see internal/rename's
	// Executor doc comment).
	planningDoc, err := pdfmodel.Open(cfg.InputPath, cfg.Credential)
	if err != nil {
		return nil, err
	}

	// Stage B: Field Extractor.
	extractor := fields.NewExtractor(planningDoc, logger)
	fieldList, warnings, err := extractor.Extract()
	if err != nil {
		return nil, err
	}

	result := &Result{Fields: fieldList, Warnings: warnings}

	// Stage C: Context Extractor (best-effort, never fatal).
	if cfg.DeriveContext {
		result.Contexts = deriveContexts(cfg.InputPath, fieldList, logger)
	}

	// Hierarchy Manager over the extracted field list.
	hm := hierarchy.Build(fieldList)
	result.HierarchyReport = hm.Validate()

	// Stage D: Modification Planner, consuming the external mapping.
	planner := rename.NewPlanner()
	plan := planner.Plan(fieldList, cfg.Mapping, hm)
	result.Plan = plan

	stem := strings.TrimSuffix(filepath.Base(cfg.InputPath), filepath.Ext(cfg.InputPath))
	outputPath := filepath.Join(cfg.OutputDir, stem+".modified.pdf")

	mutateDoc, err := pdfmodel.Open(cfg.InputPath, cfg.Credential)
	if err != nil {
		return nil, err
	}

	validator := integrity.NewValidator(logger)
	var backupSvc *backup.Service
	if cfg.BackupEnabled && cfg.BackupDir != "" {
		backupSvc = backup.NewService(cfg.BackupDir, logger)
	}

	// Stage E: Executor. A non-nil err here is a document-level failure
	// (spec.md §7's modification-critical); execResult is still populated
	// (success=false, errors recorded) so reports can describe what
	// happened, but the failure is surfaced to the caller at the end.
	executor := rename.NewExecutor(backupSvc, validator, logger)
	execResult, execErr := executor.Run(mutateDoc, plan, cfg.InputPath, outputPath, cfg.DryRun, cfg.BackupEnabled)
	if execResult == nil {
		return nil, execErr
	}
	result.ExecResult = execResult

	// Stage F: Integrity Validator, comparing against the pre-mutation
	// extraction. Skipped for dry runs: nothing was written to re-validate.
	if !cfg.DryRun && execErr == nil {
		result.ValidationReport = validator.Validate(mutateDoc, fieldList, planningDoc.PageCount())
	}

	if werr := writeReports(cfg, stem, fieldList, hm, result); werr != nil {
		return result, werr
	}
	result.ReportPaths.ModifiedPDF = execResult.OutputPath

	return result, execErr
}

func deriveContexts(path string, fieldList []fields.FormField, logger *pdferrors.Logger) []pdfcontext.FieldContext {
	source, err := pdfcontext.OpenLedongthucTextSource(path)
	if err != nil {
		logger.Warnf("context extraction unavailable: %v", err)
		return nil
	}
	defer source.Close()

	ctxExtractor := pdfcontext.NewExtractor(source, logger)
	contexts, err := ctxExtractor.Extract(fieldList)
	if err != nil {
		logger.Warnf("context extraction failed: %v", err)
		return nil
	}
	return contexts
}

func writeReports(cfg Config, stem string, fieldList []fields.FormField, hm *hierarchy.Manager, result *Result) error {
	if result.ExecResult != nil {
		path := filepath.Join(cfg.OutputDir, stem+"_modification_report.json")
		if err := reports.WriteModificationReport(path, result.ExecResult, fieldList, result.HierarchyReport); err != nil {
			return err
		}
		result.ReportPaths.ModificationReport = path

		csvPath := filepath.Join(cfg.OutputDir, stem+"_modification_summary.csv")
		modCtx := reports.ModificationContext{Confidence: confidenceByFieldID(result.Contexts)}
		if err := reports.WriteModificationSummaryCSV(csvPath, result.ExecResult.Modifications, modCtx); err != nil {
			return err
		}
		result.ReportPaths.ModificationCSV = csvPath
	}

	dbPath := filepath.Join(cfg.OutputDir, stem+"_database_ready.csv")
	if err := reports.WriteDatabaseCSV(dbPath, fieldList, hm); err != nil {
		return err
	}
	result.ReportPaths.DatabaseCSV = dbPath

	if result.ValidationReport != nil {
		valPath := filepath.Join(cfg.OutputDir, stem+"_validation_report.json")
		if err := reports.WriteValidationReport(valPath, result.ValidationReport); err != nil {
			return err
		}
		result.ReportPaths.ValidationReport = valPath
	}

	return nil
}

func confidenceByFieldID(contexts []pdfcontext.FieldContext) map[string]float64 {
	if len(contexts) == 0 {
		return nil
	}
	out := make(map[string]float64, len(contexts))
	for _, c := range contexts {
		out[c.FieldID] = c.Confidence
	}
	return out
}
