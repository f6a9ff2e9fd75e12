// Package backup implements Backup/Recovery (spec.md §4.F.1): timestamped
// snapshots of a PDF taken immediately before mutation, a JSON-backed index,
// and restore/cleanup operations.
//
// Grounded on the teacher's JSON-index conventions (internal/pdf uses
// encoding/json throughout for its own reports) and on pdferrors for the
// fatal-kind taxonomy (source-missing, copy-failed, backup-missing,
// corrupt-backup) spec.md §7 assigns this component.
package backup

import "time"

// Record is one BackupRecord (spec.md §3.1).
type Record struct {
	BackupID           string    `json:"backup_id"`
	OriginalPath       string    `json:"original_path"`
	BackupPath         string    `json:"backup_path"`
	CreatedAt          time.Time `json:"created_at"`
	Size               int64     `json:"size"`
	Notes              string    `json:"notes,omitempty"`
	Important          bool      `json:"important"`
	ModificationCount  int       `json:"modification_count,omitempty"`
}

// RestoreResult is the outcome of Service.Restore.
type RestoreResult struct {
	Success      bool
	RestoredPath string
	Errors       []string
}

type index struct {
	Records []Record `json:"records"`
}
