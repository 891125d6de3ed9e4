package fatfs

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fatfs-specific fields.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
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

// WithEntry adds an entry index field to the logger.
func (l *Logger) WithEntry(idx int32) *Logger {
	return &Logger{
		Logger: l.Logger.With("entry", idx),
	}
}

// LogInit logs arena initialization or attach.
func (l *Logger) LogInit(op string, regionSize, totalBlocks, maxEntries int, err error) {
	if err != nil {
		l.Error(op+" failed",
			"region_size", regionSize,
			"error", err,
		)
		return
	}
	l.Info(op+" completed",
		"region_size", regionSize,
		"total_blocks", totalBlocks,
		"max_entries", maxEntries,
	)
}

// LogCreate logs a file or directory creation.
func (l *Logger) LogCreate(kind Kind, name string, err error) {
	if err != nil {
		l.Error("create failed",
			"kind", kind,
			"name", name,
			"error", err,
		)
	} else {
		l.Debug("create completed",
			"kind", kind,
			"name", name,
		)
	}
}

// LogErase logs a file or directory erase.
func (l *Logger) LogErase(kind Kind, name string, blocksFreed int, err error) {
	if err != nil {
		l.Error("erase failed",
			"kind", kind,
			"name", name,
			"error", err,
		)
	} else {
		l.Debug("erase completed",
			"kind", kind,
			"name", name,
			"blocks_freed", blocksFreed,
		)
	}
}

// LogRemoveAll logs a recursive directory removal.
func (l *Logger) LogRemoveAll(name string, entries, blocks int, err error) {
	if err != nil {
		l.Error("remove all failed",
			"name", name,
			"error", err,
		)
	} else {
		l.Info("remove all completed",
			"name", name,
			"entries_freed", entries,
			"blocks_freed", blocks,
		)
	}
}

// LogOpen logs a file open.
func (l *Logger) LogOpen(name string, err error) {
	if err != nil {
		l.Error("open failed",
			"name", name,
			"error", err,
		)
	} else {
		l.Debug("open completed",
			"name", name,
		)
	}
}

// LogWrite logs a write through a file handle.
func (l *Logger) LogWrite(idx int32, requested, written int, err error) {
	if err != nil {
		l.Warn("write incomplete",
			"entry", idx,
			"requested", requested,
			"written", written,
			"error", err,
		)
	} else {
		l.Debug("write completed",
			"entry", idx,
			"written", written,
		)
	}
}

// LogCheck logs a consistency check.
func (l *Logger) LogCheck(err error) {
	if err != nil {
		l.Error("consistency check failed",
			"error", err,
		)
	} else {
		l.Debug("consistency check passed")
	}
}

// LogSnapshot logs a snapshot save or restore.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+op+" failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot "+op+" completed",
			"name", name,
			"bytes", bytes,
		)
	}
}
