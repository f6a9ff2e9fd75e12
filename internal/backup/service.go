package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/a3tai/pdfrename/internal/pdferrors"
)

const indexFileName = "backup_metadata.json"

// Service creates, lists, restores, and ages out PDF snapshots rooted at one
// backup directory.
type Service struct {
	dir    string
	logger *pdferrors.Logger
	now    func() time.Time
}

// NewService returns a Service rooted at dir. dir must already exist.
func NewService(dir string, logger *pdferrors.Logger) *Service {
	if logger == nil {
		logger = pdferrors.Discard()
	}
	return &Service{dir: dir, logger: logger, now: time.Now}
}

func (s *Service) indexPath() string {
	return filepath.Join(s.dir, indexFileName)
}

func (s *Service) loadIndex() (*index, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &index{}, nil
		}
		return nil, err
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func (s *Service) saveIndex(idx *index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.indexPath(), data, 0o640)
}

// Create snapshots path into the backup directory and records it (spec.md
// §4.F.1 "create").
func (s *Service) Create(path, notes string) (*Record, error) {
	return s.createRecord(path, notes, 0)
}

// CreateIncremental is Create with a modification count attached, used when
// the caller snapshots mid-sequence rather than once before the first
// mutation.
func (s *Service) CreateIncremental(path string, count int, notes string) (*Record, error) {
	return s.createRecord(path, notes, count)
}

func (s *Service) createRecord(path, notes string, modCount int) (*Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindBackupSourceMissing, err).WithContext(path)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	createdAt := s.now()
	backupID := fmt.Sprintf("%s_%s", stem, createdAt.Format("20060102_150405"))
	backupPath := filepath.Join(s.dir, backupID+"_backup.pdf")

	if err := copyFilePreservingTimes(path, backupPath); err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindBackupCopyFailed, err).WithContext(path)
	}

	rec := Record{
		BackupID:          backupID,
		OriginalPath:      path,
		BackupPath:        backupPath,
		CreatedAt:         createdAt,
		Size:              info.Size(),
		Notes:             notes,
		ModificationCount: modCount,
	}

	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	idx.Records = append(idx.Records, rec)
	if err := s.saveIndex(idx); err != nil {
		return nil, err
	}

	s.logger.Tracef("backup: created %s from %s", backupID, path)
	return &rec, nil
}

// Restore copies a backup back over target, defaulting to the backup's
// original path (spec.md §4.F.1 "restore").
func (s *Service) Restore(backupID string, target string) (*RestoreResult, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	var rec *Record
	for i := range idx.Records {
		if idx.Records[i].BackupID == backupID {
			rec = &idx.Records[i]
			break
		}
	}
	if rec == nil {
		return nil, pdferrors.New(pdferrors.KindBackupMissing, "backup not found").WithContext(backupID)
	}

	if !s.integrityOK(rec.BackupPath) {
		return nil, pdferrors.New(pdferrors.KindBackupCorrupt, "backup failed integrity check").WithContext(backupID)
	}

	if target == "" {
		target = rec.OriginalPath
	}
	if err := copyFilePreservingTimes(rec.BackupPath, target); err != nil {
		return &RestoreResult{Success: false, Errors: []string{err.Error()}}, nil
	}
	return &RestoreResult{Success: true, RestoredPath: target}, nil
}

// integrityOK implements the backup integrity check (spec.md §4.F.1): file
// exists, nonempty, first eight bytes are the PDF header marker.
func (s *Service) integrityOK(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return false
	}
	header := make([]byte, 8)
	n, err := f.Read(header)
	if err != nil || n < 5 {
		return false
	}
	return strings.HasPrefix(string(header[:n]), "%PDF-")
}

// List returns every backup record, newest first.
func (s *Service) List() ([]Record, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	out := append([]Record{}, idx.Records...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Cleanup removes records older than daysToKeep, sparing those whose
// Important flag is set when keepImportant is true, and updates the index
// in place.
func (s *Service) Cleanup(daysToKeep int, keepImportant bool) error {
	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	cutoff := s.now().AddDate(0, 0, -daysToKeep)
	kept := idx.Records[:0]
	for _, rec := range idx.Records {
		if rec.CreatedAt.After(cutoff) || (keepImportant && rec.Important) {
			kept = append(kept, rec)
			continue
		}
		_ = os.Remove(rec.BackupPath)
	}
	idx.Records = kept
	return s.saveIndex(idx)
}

// MarkImportant sets a record's Important flag to flag.
func (s *Service) MarkImportant(id string, flag bool) error {
	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	found := false
	for i := range idx.Records {
		if idx.Records[i].BackupID == id {
			idx.Records[i].Important = flag
			found = true
			break
		}
	}
	if !found {
		return pdferrors.New(pdferrors.KindBackupMissing, "backup not found").WithContext(id)
	}
	return s.saveIndex(idx)
}

func copyFilePreservingTimes(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o640); err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return nil
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
