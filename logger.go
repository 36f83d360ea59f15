package replaycheck

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// LevelSuccess is the log level used for passed checkpoints inside a test
// case. It sits between Info and Warn so that a handler configured at Info
// prints it.
const LevelSuccess = slog.LevelInfo + 2

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for replaycheck and all its sub-packages.
// By default, replaycheck produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by replaycheck:
//   - [slog.LevelDebug]: replay internals (event execution, resource creation)
//   - [slog.LevelInfo]: lifecycle (capture written, case started)
//   - [LevelSuccess]: passed checkpoints inside a test case
//   - [slog.LevelWarn]: non-fatal issues (temp dir cleanup failures)
//   - [slog.LevelError]: failed test cases
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by replaycheck.
// Sub-packages call this to share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// LevelName renders log levels for text handlers, naming LevelSuccess
// "SUCCESS" instead of "INFO+2". Use it as a HandlerOptions.ReplaceAttr.
func LevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelSuccess {
		a.Value = slog.StringValue("SUCCESS")
	}
	return a
}
