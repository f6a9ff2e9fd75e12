// Package config loads the ambient configuration for the pdfrename CLI
// front end. The naming-suggestion engine, progress bars, and interactive
// review loop are out of scope (spec.md §1); this package only covers
// argument parsing and directory/file validation for one pipeline run.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirPerm is used whenever the pipeline creates a backup or
	// output directory that does not yet exist.
	DefaultDirPerm = 0o750

	DefaultLogLevel = "info"
)

// Config holds all configuration for a single pdfrename invocation.
type Config struct {
	// InputPath is the source PDF to process.
	InputPath string
	// MappingPath is the JSON file holding the FieldId -> NewName map
	// produced by the external naming-suggestion engine (spec.md §6.1).
	MappingPath string
	// OutputDir is where the modified PDF and report files are written.
	OutputDir string
	// BackupDir is where pre-mutation snapshots and the backup index live.
	BackupDir string

	DryRun        bool
	BackupEnabled bool
	Trace         bool

	Credential string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		OutputDir:     cwd,
		BackupDir:     filepath.Join(cwd, "backups"),
		DryRun:        false,
		BackupEnabled: true,
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("pdfrename", flag.ContinueOnError)
	fs.StringVar(&cfg.MappingPath, "mapping", "", "Path to a JSON file mapping field id to new name (required)")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for the modified PDF and report files")
	fs.StringVar(&cfg.BackupDir, "backup-dir", cfg.BackupDir, "Directory for pre-mutation backups and the backup index")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Plan renames without writing the modified PDF or taking a backup (reports are still written)")
	fs.BoolVar(&cfg.BackupEnabled, "backup", cfg.BackupEnabled, "Take a snapshot of the source before mutating it")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "Enable diagnostic tracing of pipeline stages")
	fs.StringVar(&cfg.Credential, "password", "", "Decryption credential, if the source PDF is encrypted")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pdfrename [flags] <input.pdf>\n\n")
		fmt.Fprintf(os.Stderr, "Applies a FieldId -> NewName mapping to an interactive PDF form,\n")
		fmt.Fprintf(os.Stderr, "producing a renamed PDF plus change, database, and integrity reports.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() == 0 {
		return nil, errors.New("input PDF path required")
	}
	cfg.InputPath = fs.Arg(0)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is usable and creates any missing
// output/backup directories.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input PDF path cannot be empty")
	}
	if _, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("cannot access input PDF %s: %w", c.InputPath, err)
	}
	if c.MappingPath == "" {
		return errors.New("mapping file path cannot be empty")
	}

	if err := ensureDir(c.OutputDir); err != nil {
		return err
	}
	if c.BackupEnabled && !c.DryRun {
		if err := ensureDir(c.BackupDir); err != nil {
			return err
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return errors.New("directory cannot be empty")
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", dir, err)
	}
	return nil
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Input: %s, Mapping: %s, OutputDir: %s, BackupDir: %s, DryRun: %t, Backup: %t}",
		c.InputPath, c.MappingPath, c.OutputDir, c.BackupDir, c.DryRun, c.BackupEnabled)
}
