package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// logHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<message>\t<key=value ...>
//
// Records at warn level and above are additionally copied to errW, so the
// user sees problems without tailing the log file.
type logHandler struct {
	w     io.Writer
	errW  io.Writer
	attrs []slog.Attr
}

func (h *logHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *logHandler) Handle(_ context.Context, r slog.Record) error {
	w := h.w
	if h.errW != nil && r.Level >= slog.LevelWarn {
		w = io.MultiWriter(h.w, h.errW)
	}

	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	level := r.Level.String()

	_, err := fmt.Fprintf(w, "%s\t%s\t%s", ts, level, r.Message)
	if err != nil {
		return err
	}

	// Write pre-set attrs.
	for _, a := range h.attrs {
		fmt.Fprintf(w, "\t%s=%v", a.Key, a.Value)
	}

	// Write per-record attrs.
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(w, "\t%s=%v", a.Key, a.Value)
		return true
	})

	_, err = fmt.Fprintln(w)
	return err
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &logHandler{
		w:     h.w,
		errW:  h.errW,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *logHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to logDir/driveway.log.
// It returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "driveway.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := &logHandler{w: f, errW: os.Stderr}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the drive.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
