// Package logging provides the shared logger for all robotviz packages.
//
// By default nothing is logged. Binaries that want output call SetLogger
// with a configured slog.Logger; library packages obtain the active logger
// through Logger and never touch slog.Default.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so SetLogger can
// be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for all robotviz packages. Pass nil to
// restore the default silent behavior.
//
// Levels in use:
//   - [slog.LevelDebug]: per-frame internals (vertex counts, cache keys)
//   - [slog.LevelInfo]: lifecycle events (description loaded, video written)
//   - [slog.LevelWarn]: non-fatal issues (missing texture, skipped geometry)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
