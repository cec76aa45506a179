// Package cascadelog builds the *slog.Logger cascade's core packages use.
// It follows the teacher's internal/tui/splog.go multi-handler composition —
// a level-free console handler for user-facing lines, fanned out alongside
// a rotating file handler for debug diagnostics — but returns a plain
// *slog.Logger instead of a bespoke wrapper type, and carries no
// package-level state: every call to New produces an independent logger.
package cascadelog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New. A zero Options gives console-only, info-level logging.
type Options struct {
	// DebugFilePath, if non-empty, routes debug-and-up records to a rotating
	// file via lumberjack in addition to the console.
	DebugFilePath string
	// Quiet suppresses console output (file logging, if configured, is unaffected).
	Quiet bool
}

// consoleHandler writes bare messages with no timestamp or level prefix,
// matching the teacher's simpleHandler. It only emits Info and above unless
// a DebugFilePath handler is also present, in which case Debug records still
// skip the console (the file sink carries trace-level detail).
type consoleHandler struct {
	writer io.Writer
	quiet  bool
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if h.quiet {
		return nil
	}
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *consoleHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *consoleHandler) WithGroup(_ string) slog.Handler      { return h }

type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		out[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: out}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		out[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: out}
}

func newLumberjackLogger(path string) *lumberjack.Logger {
	l := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
		Compress:   false,
	}
	if v := os.Getenv("CASCADE_LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			l.MaxSize = n
		}
	}
	if v := os.Getenv("CASCADE_LOG_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			l.MaxBackups = n
		}
	}
	if v := os.Getenv("CASCADE_LOG_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			l.MaxAge = n
		}
	}
	return l
}

// New builds a *slog.Logger per opts. The returned logger owns no shared
// state; callers that want a file sink each get their own lumberjack.Logger.
func New(opts Options) (*slog.Logger, error) {
	handlers := []slog.Handler{&consoleHandler{writer: os.Stdout, quiet: opts.Quiet}}

	if opts.DebugFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.DebugFilePath), 0o750); err != nil {
			return nil, fmt.Errorf("cascadelog: create log directory: %w", err)
		}
		fileHandler := slog.NewTextHandler(newLumberjackLogger(opts.DebugFilePath), &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		})
		handlers = append(handlers, fileHandler)
	}

	return slog.New(&multiHandler{handlers: handlers}), nil
}
