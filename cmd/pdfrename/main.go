// Command pdfrename renames PDF interactive-form fields according to an
// externally supplied FieldId -> NewName mapping, running the full
// load/extract/plan/execute/validate pipeline and writing the report set
// spec.md §6.2 describes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/a3tai/pdfrename/internal/config"
	"github.com/a3tai/pdfrename/internal/pdferrors"
	"github.com/a3tai/pdfrename/internal/pipeline"
)

func main() {
	cfg, err := config.LoadFromFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mapping, err := loadMapping(cfg.MappingPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load mapping: %v\n", err)
		os.Exit(1)
	}

	logger := pdferrors.Discard()
	if cfg.Trace {
		logger = pdferrors.NewLogger(os.Stderr, true)
	}

	result, runErr := pipeline.Run(pipeline.Config{
		InputPath:     cfg.InputPath,
		Credential:    cfg.Credential,
		OutputDir:     cfg.OutputDir,
		BackupDir:     cfg.BackupDir,
		Mapping:       mapping,
		DryRun:        cfg.DryRun,
		BackupEnabled: cfg.BackupEnabled,
		DeriveContext: cfg.IsDebug(),
	}, logger)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		if result != nil && result.ExecResult != nil && result.ExecResult.RolledBack {
			fmt.Fprintln(os.Stderr, "the source file was rolled back to its pre-run state")
		}
		os.Exit(1)
	}

	printSummary(result)
}

func loadMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("mapping file is not a flat {field_id: new_name} JSON object: %w", err)
	}
	return mapping, nil
}

func printSummary(result *pipeline.Result) {
	fmt.Printf("extracted %d field(s)\n", len(result.Fields))
	if result.Plan != nil {
		fmt.Printf("planned %d modification(s), %d conflict(s), safety score %.2f\n",
			len(result.Plan.Modifications), len(result.Plan.Conflicts), result.Plan.SafetyScore)
	}
	if result.ExecResult != nil {
		fmt.Printf("applied %d, failed %d, skipped %d\n",
			result.ExecResult.AppliedCount, result.ExecResult.FailedCount, result.ExecResult.SkippedCount)
	}
	if result.ValidationReport != nil {
		fmt.Printf("integrity: %s (safety score %.2f)\n", result.ValidationReport.OverallStatus, result.ValidationReport.SafetyScore)
	}
	for _, path := range []string{
		result.ReportPaths.ModifiedPDF,
		result.ReportPaths.ModificationReport,
		result.ReportPaths.ModificationCSV,
		result.ReportPaths.DatabaseCSV,
		result.ReportPaths.ValidationReport,
	} {
		if path != "" {
			fmt.Printf("wrote %s\n", filepath.Clean(path))
		}
	}
}
