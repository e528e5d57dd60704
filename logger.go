package appdeck

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with appdeck-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewJSONLoggerTo(os.Stderr, level)
}

// NewJSONLoggerTo is NewJSONLogger writing to w.
func NewJSONLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewTextLoggerTo(os.Stderr, level)
}

// NewTextLoggerTo is NewTextLogger writing to w.
func NewTextLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithGeneration adds a snapshot generation field to the logger.
func (l *Logger) WithGeneration(gen uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("generation", gen),
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, results int, duration time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "search aborted",
			"query", query,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"query", query,
			"results", results,
			"duration", duration,
		)
	}
}

// LogRescan logs an application rescan.
func (l *Logger) LogRescan(ctx context.Context, generation uint64, items int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rescan failed",
			"generation", generation,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "rescan completed",
			"generation", generation,
			"items", items,
			"duration", duration,
		)
	}
}

// LogPreheat logs a finished icon preheat.
func (l *Logger) LogPreheat(ctx context.Context, stats PreheatStats) {
	if stats.Failed > 0 || stats.Skipped > 0 {
		l.WarnContext(ctx, "icon preheat completed with failures",
			"requested", stats.Requested,
			"rendered", stats.Rendered,
			"cached", stats.Cached,
			"failed", stats.Failed,
			"skipped", stats.Skipped,
			"duration", stats.Duration,
		)
	} else {
		l.DebugContext(ctx, "icon preheat completed",
			"requested", stats.Requested,
			"rendered", stats.Rendered,
			"cached", stats.Cached,
			"duration", stats.Duration,
		)
	}
}

// LogWatch logs the start and end of a directory watch.
func (l *Logger) LogWatch(ctx context.Context, roots []string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "watch stopped",
			"roots", roots,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "watching application roots",
			"roots", roots,
		)
	}
}
