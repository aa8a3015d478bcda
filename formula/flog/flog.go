// Package flog provides a thin, level-prefixed wrapper over the standard
// library's log.Logger, matching the DEBUG/INFO/WARN/ERROR/FATAL prefix
// convention used throughout the server and CLI commands.
package flog

import (
	"io"
	"log"
	"os"
)

// Logger prints level-prefixed lines to an underlying log.Logger.
type Logger struct {
	std *log.Logger
}

// New creates a Logger writing to w with the given log.Logger flags.
func New(w io.Writer, flags int) *Logger {
	return &Logger{std: log.New(w, "", flags)}
}

// Default returns a Logger writing to stderr with standard date/time flags.
func Default() *Logger {
	return New(os.Stderr, log.LstdFlags)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.std.Printf("DEBUG "+format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Printf("INFO  "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf("WARN  "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf("ERROR "+format, args...)
}

// Fatalf logs at FATAL level and then calls os.Exit(1), matching
// log.Logger.Fatalf.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.std.Fatalf("FATAL "+format, args...)
}
