// Package logging holds the process-wide structured logger shared by the
// softrender packages. By default nothing is logged.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
)

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

// SetLogger installs l for all packages. Passing nil restores the silent
// default.
//
// Levels in use:
//   - [slog.LevelDebug]: per-file parse statistics, skipped faces
//   - [slog.LevelInfo]: loads, renders and saves
//   - [slog.LevelWarn]: fallbacks (missing UVs, mesh outside the view volume)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the active logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// NewText returns a text logger writing to each of ws at the given level.
func NewText(level slog.Leveler, ws ...io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	hs := make(fanout, 0, len(ws))
	for _, w := range ws {
		if w != nil {
			hs = append(hs, slog.NewTextHandler(w, opts))
		}
	}
	if len(hs) == 1 {
		return slog.New(hs[0])
	}
	return slog.New(hs)
}

// fanout forwards each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
