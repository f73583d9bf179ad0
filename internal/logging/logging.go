// Package logging writes structured logs to a file. The TUI owns the
// terminal, so nothing may log to stdout or stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the shared logger instance. Nil until Init succeeds;
	// the helpers below tolerate that so tests need no setup.
	Logger *log.Logger

	logFile *os.File
)

// Init opens the daily log file under ~/.postdesk/logs and points the
// shared logger at it.
func Init() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	logDir := filepath.Join(homeDir, ".postdesk", "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("postdesk-%s.log", time.Now().Format("2006-01-02")))
	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	initWriter(logFile)
	Logger.Info("postdesk started")
	return nil
}

func initWriter(w io.Writer) {
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.DebugLevel,
	})
}

// Close flushes and closes the log file.
func Close() {
	if Logger != nil {
		Logger.Info("postdesk shutting down")
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message.
func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message.
func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
