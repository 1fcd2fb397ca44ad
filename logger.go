package windgl

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/prajeeshag/windgl/backend"
	"github.com/prajeeshag/windgl/render"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for windgl and every linked device
// backend.
// By default, windgl produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default.
//
// Log levels used by windgl:
//   - [slog.LevelDebug]: allocation sizes on Reset, pipeline cache misses
//   - [slog.LevelInfo]: device selection
//   - [slog.LevelWarn]: non-fatal surprises (density yielding no particles,
//     resources alive when a device closes)
//
// Example:
//
//	windgl.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	render.SetLogger(l)
	backend.SetLogger(l)
}

// Logger returns the current logger used by windgl.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

func slogger() *slog.Logger { return loggerPtr.Load() }
