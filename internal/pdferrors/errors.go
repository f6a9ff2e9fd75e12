// Package pdferrors defines the closed error taxonomy the field-mutation
// pipeline surfaces to callers, per spec.md §7.
package pdferrors

import (
	"fmt"
	"time"
)

// Kind enumerates the fatal and recoverable error categories the pipeline
// recognizes. Every layer either returns one of these or a typed result;
// nothing relies on unwinding through arbitrary error chains.
type Kind int

const (
	KindUnknown Kind = iota
	KindInputNotFound
	KindInputUnreadable
	KindInputEncryptedNoCredential
	KindInputBadCredential
	KindInputEmpty
	KindExtractionCycle
	KindExtractionWarning
	KindPlannerConflict
	KindModificationFieldFailure
	KindModificationCritical
	KindValidationIssue
	KindValidationWarning
	KindBackupMissing
	KindBackupCorrupt
	KindBackupSourceMissing
	KindBackupCopyFailed
)

func (k Kind) String() string {
	switch k {
	case KindInputNotFound:
		return "input-not-found"
	case KindInputUnreadable:
		return "input-unreadable"
	case KindInputEncryptedNoCredential:
		return "input-encrypted-no-credential"
	case KindInputBadCredential:
		return "input-bad-credential"
	case KindInputEmpty:
		return "input-empty"
	case KindExtractionCycle:
		return "extraction-cycle"
	case KindExtractionWarning:
		return "extraction-warning"
	case KindPlannerConflict:
		return "planner-conflict"
	case KindModificationFieldFailure:
		return "modification-field-failure"
	case KindModificationCritical:
		return "modification-critical"
	case KindValidationIssue:
		return "validation-issue"
	case KindValidationWarning:
		return "validation-warning"
	case KindBackupMissing:
		return "backup-missing"
	case KindBackupCorrupt:
		return "backup-corrupt"
	case KindBackupSourceMissing:
		return "backup-source-missing"
	case KindBackupCopyFailed:
		return "backup-copy-failed"
	default:
		return "unknown"
	}
}

// Fatal reports whether this kind aborts a run with no output produced.
func (k Kind) Fatal() bool {
	switch k {
	case KindInputNotFound, KindInputUnreadable, KindInputEncryptedNoCredential,
		KindInputBadCredential, KindInputEmpty, KindModificationCritical:
		return true
	default:
		return false
	}
}

// PipelineError is the single error type every pipeline stage returns.
type PipelineError struct {
	Kind      Kind
	Message   string
	Context   string
	FieldID   string
	Timestamp time.Time
	Cause     error
}

func New(kind Kind, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Timestamp: time.Now()}
}

func Wrap(kind Kind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: err.Error(), Cause: err, Timestamp: time.Now()}
}

func (e *PipelineError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Message, e.Context)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

func (e *PipelineError) WithContext(context string) *PipelineError {
	e.Context = context
	return e
}

func (e *PipelineError) WithField(fieldID string) *PipelineError {
	e.FieldID = fieldID
	return e
}

// Collection accumulates non-fatal issues and warnings over a single
// pipeline run, mirroring the distinction spec.md §7 draws between
// validation-issue and validation-warning severities.
type Collection struct {
	Issues   []*PipelineError
	Warnings []*PipelineError
}

func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) AddIssue(err *PipelineError) {
	c.Issues = append(c.Issues, err)
}

func (c *Collection) AddWarning(err *PipelineError) {
	c.Warnings = append(c.Warnings, err)
}

func (c *Collection) HasIssues() bool { return len(c.Issues) > 0 }

func (c *Collection) Summary() string {
	if len(c.Issues) == 0 && len(c.Warnings) == 0 {
		return "no issues or warnings"
	}
	return fmt.Sprintf("%d issue(s), %d warning(s)", len(c.Issues), len(c.Warnings))
}
