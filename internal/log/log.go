// Package log provides centralized logging for plan-bridge using charmbracelet/log.
//
// The logger always writes to stderr: stdout is reserved for MCP traffic when
// the server runs over stdio.
package log

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the global logger instance.
var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: true,
		Prefix:          "plan-bridge",
		Level:           log.InfoLevel,
	})
}

// SetLevel sets the logging level.
func SetLevel(level log.Level) {
	Logger.SetLevel(level)
}

// SetLevelName sets the logging level from its textual name ("debug", "info", ...).
// Unknown names leave the level untouched and return the parse error.
func SetLevelName(name string) error {
	level, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	Logger.SetLevel(level)
	return nil
}

// SetOutput redirects log output. Used by tests and by the dashboard, which
// owns the terminal while it runs.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Debug logs a debug message.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// Fatal logs a fatal message and exits.
func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

// CloseError logs an error from a close operation if the error is not nil.
// This is useful for handling deferred close errors.
func CloseError(resource string, err error) {
	if err != nil {
		Logger.Warn("failed to close resource", "resource", resource, "error", err)
	}
}
