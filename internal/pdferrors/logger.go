package pdferrors

import (
	"io"
	"log"
	"os"
)

// Logger is a thin, injectable wrapper around the standard library logger,
// in the style of the teacher's FormDebugger and RecoveryManager: diagnostic
// tracing that is off by default and never changes pipeline behavior.
type Logger struct {
	std     *log.Logger
	enabled bool
}

// NewLogger builds a Logger writing to w. When enabled is false, Tracef is a
// no-op; construct with enabled=true only for diagnostic runs.
func NewLogger(w io.Writer, enabled bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{std: log.New(w, "", log.LstdFlags), enabled: enabled}
}

// Discard returns a Logger that never writes, used as the pipeline default.
func Discard() *Logger {
	return &Logger{std: log.New(io.Discard, "", 0), enabled: false}
}

func (l *Logger) Tracef(format string, args ...interface{}) {
	if l == nil || !l.enabled {
		return
	}
	l.std.Printf(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.std.Printf("WARN: "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.std.Printf("ERROR: "+format, args...)
}
