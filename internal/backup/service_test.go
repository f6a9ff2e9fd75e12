package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSourcePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\n...fake...\n%%EOF"), 0o640))
	return path
}

func TestService_CreateAndList(t *testing.T) {
	srcDir := t.TempDir()
	backupDir := t.TempDir()
	src := writeSourcePDF(t, srcDir, "form.pdf")

	svc := NewService(backupDir, nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec, err := svc.Create(src, "pre-rename snapshot")
	require.NoError(t, err)
	assert.Equal(t, "form_20260102_030405", rec.BackupID)
	assert.FileExists(t, rec.BackupPath)

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.BackupID, list[0].BackupID)
}

func TestService_CreateMissingSourceFails(t *testing.T) {
	backupDir := t.TempDir()
	svc := NewService(backupDir, nil)
	_, err := svc.Create(filepath.Join(backupDir, "does-not-exist.pdf"), "")
	assert.Error(t, err)
}

func TestService_RestoreRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	backupDir := t.TempDir()
	src := writeSourcePDF(t, srcDir, "form.pdf")

	svc := NewService(backupDir, nil)
	rec, err := svc.Create(src, "")
	require.NoError(t, err)

	// Corrupt the "original" to prove restore overwrites it.
	require.NoError(t, os.WriteFile(src, []byte("corrupted"), 0o640))

	result, err := svc.Restore(rec.BackupID, "")
	require.NoError(t, err)
	assert.True(t, result.Success)

	restored, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Contains(t, string(restored), "%PDF-1.7")
}

func TestService_RestoreUnknownBackupFails(t *testing.T) {
	backupDir := t.TempDir()
	svc := NewService(backupDir, nil)
	_, err := svc.Restore("nonexistent", "")
	assert.Error(t, err)
}

func TestService_CleanupRemovesOldNonImportant(t *testing.T) {
	srcDir := t.TempDir()
	backupDir := t.TempDir()
	src := writeSourcePDF(t, srcDir, "form.pdf")

	svc := NewService(backupDir, nil)
	svc.now = func() time.Time { return time.Now().AddDate(0, 0, -30) }
	old, err := svc.Create(src, "")
	require.NoError(t, err)

	svc.now = time.Now
	require.NoError(t, svc.MarkImportant(old.BackupID, false))
	require.NoError(t, svc.Cleanup(7, true))

	list, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoFileExists(t, old.BackupPath)
}

func TestService_CleanupKeepsImportant(t *testing.T) {
	srcDir := t.TempDir()
	backupDir := t.TempDir()
	src := writeSourcePDF(t, srcDir, "form.pdf")

	svc := NewService(backupDir, nil)
	svc.now = func() time.Time { return time.Now().AddDate(0, 0, -30) }
	old, err := svc.Create(src, "")
	require.NoError(t, err)
	require.NoError(t, svc.MarkImportant(old.BackupID, true))

	svc.now = time.Now
	require.NoError(t, svc.Cleanup(7, true))

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
}
