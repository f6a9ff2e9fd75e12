package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempPDF(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7\n"), 0o644); err != nil {
		t.Fatalf("write temp pdf: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.LogLevel)
	}
	if !cfg.BackupEnabled {
		t.Errorf("expected backups enabled by default")
	}
	if cfg.DryRun {
		t.Errorf("expected dry-run disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writeTempPDF(t, dir)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name: "valid config",
			mutate: func(c *Config) {
				c.InputPath = pdfPath
				c.MappingPath = "mapping.json"
				c.OutputDir = filepath.Join(dir, "out")
				c.BackupDir = filepath.Join(dir, "backups")
			},
			wantErr: false,
		},
		{
			name: "missing input path",
			mutate: func(c *Config) {
				c.InputPath = ""
				c.MappingPath = "mapping.json"
			},
			wantErr: true,
		},
		{
			name: "missing mapping path",
			mutate: func(c *Config) {
				c.InputPath = pdfPath
				c.MappingPath = ""
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			mutate: func(c *Config) {
				c.InputPath = pdfPath
				c.MappingPath = "mapping.json"
				c.LogLevel = "verbose"
			},
			wantErr: true,
		},
		{
			name: "nonexistent input path",
			mutate: func(c *Config) {
				c.InputPath = filepath.Join(dir, "missing.pdf")
				c.MappingPath = "mapping.json"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.OutputDir = filepath.Join(dir, "out-"+tt.name)
			cfg.BackupDir = filepath.Join(dir, "backups-"+tt.name)
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlagsCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writeTempPDF(t, dir)
	mappingPath := filepath.Join(dir, "mapping.json")
	if err := os.WriteFile(mappingPath, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	outDir := filepath.Join(dir, "out")
	backupDir := filepath.Join(dir, "backups")

	cfg, err := LoadFromFlags([]string{
		"-mapping", mappingPath,
		"-out", outDir,
		"-backup-dir", backupDir,
		pdfPath,
	})
	if err != nil {
		t.Fatalf("LoadFromFlags: %v", err)
	}

	if cfg.InputPath != pdfPath {
		t.Errorf("expected input path %q, got %q", pdfPath, cfg.InputPath)
	}
	if _, err := os.Stat(outDir); err != nil {
		t.Errorf("expected output dir to be created: %v", err)
	}
	if _, err := os.Stat(backupDir); err != nil {
		t.Errorf("expected backup dir to be created: %v", err)
	}
}

func TestLoadFromFlagsRequiresInput(t *testing.T) {
	if _, err := LoadFromFlags([]string{"-mapping", "m.json"}); err == nil {
		t.Error("expected error when no input path is given")
	}
}
