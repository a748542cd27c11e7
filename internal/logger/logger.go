// Package logger provides structured logging for inkwell, built on log/slog.
//
// The package exposes a process-wide logger configured once at startup via
// Init. Components obtain scoped loggers with With, e.g.:
//
//	log := logger.With("component", "postgres_tree_store")
//	log.Info("store initialized", "database", cfg.Database)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	mu      sync.RWMutex
	slogger = slog.New(slog.NewTextHandler(os.Stdout, nil))
)

// Init initializes the process-wide logger with the given configuration.
// Output can be "stdout", "stderr", or a file path.
func Init(cfg Config) error {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	mu.Lock()
	slogger = slog.New(handler)
	mu.Unlock()
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}

// With returns a logger with the given attributes attached to every record.
func With(args ...any) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger.With(args...)
}

// Default returns the current process-wide logger.
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at DEBUG level using the process-wide logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }

// Info logs at INFO level using the process-wide logger.
func Info(msg string, args ...any) { Default().Info(msg, args...) }

// Warn logs at WARN level using the process-wide logger.
func Warn(msg string, args ...any) { Default().Warn(msg, args...) }

// Error logs at ERROR level using the process-wide logger.
func Error(msg string, args ...any) { Default().Error(msg, args...) }
