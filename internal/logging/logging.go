// Package logging builds the process logger: human readable console output
// plus a rotating debug log file.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FileName = "scraper.log"

	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 30
)

// Setup returns a logger writing INFO (DEBUG when debug is set) to stderr
// and everything to dir/scraper.log. The closer flushes the log file.
func Setup(dir string, debug bool) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}

	consoleLevel := slog.LevelInfo
	if debug {
		consoleLevel = slog.LevelDebug
	}

	logger := slog.New(NewFanout(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: consoleLevel}),
		slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}),
	))
	return logger, file, nil
}

// Discard is a logger for tests and tools that want no output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RecoverPanic logs a panic with its stack trace and re-panics.
// Use as `defer logging.RecoverPanic(logger)` at the top of main and of
// long-lived goroutines.
func RecoverPanic(logger *slog.Logger) {
	if r := recover(); r != nil {
		logger.Error("uncaught panic", "panic", r, "stack", string(debug.Stack()))
		panic(r)
	}
}

// Fanout sends every record to each handler that accepts its level.
type Fanout struct {
	handlers []slog.Handler
}

func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{handlers: handlers}
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &Fanout{handlers: handlers}
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &Fanout{handlers: handlers}
}
