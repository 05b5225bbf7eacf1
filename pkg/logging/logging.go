// Package logging wraps log/slog to provide JSON-formatted structured logs
// for the ring host. Logs go to a file when one is configured, otherwise to
// stderr.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Logger is a thin handle over a slog.Logger plus the file it writes to.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	file   *os.File
}

// New creates a Logger writing JSON logs at the given level ("debug", "info",
// "warn", "error"; unknown values fall back to info). An empty path selects
// stderr.
func New(path, level string) (*Logger, error) {
	var w *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file")
		}
		w = f
	}

	out := os.Stderr
	if w != nil {
		out = w
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(level)})

	return &Logger{logger: slog.New(handler), file: w}, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), file: l.file}
}

func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
