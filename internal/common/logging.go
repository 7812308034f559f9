package common

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger: JSON records appended to a size-bounded
// rotating log file. Stage outcomes go here; user-facing messages go to
// stdout/stderr separately. An unopenable log path falls back to stderr so a
// bad RENAMER_LOG_FILE never aborts a run.
func NewLogger(cfg LogConfig) (*slog.Logger, io.Closer) {
	if f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err != nil {
		logger := NewStderrLogger(cfg.Level)
		logger.Warn("log.file_unavailable", "path", cfg.Path, "error", err)
		return logger, nopCloser{}
	} else if cerr := f.Close(); cerr != nil {
		return NewStderrLogger(cfg.Level), nopCloser{}
	}

	sink := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxInt(cfg.MaxSizeMB, 1),
		MaxBackups: cfg.MaxBackups,
	}
	handler := slog.NewJSONHandler(sink, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	return slog.New(handler), sink
}

// NewStderrLogger is the fallback when the log file cannot be opened; tests
// use it directly.
func NewStderrLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
