// Package logging builds the process logger: a pterm console handler for the
// terminal and, when configured, a rotating JSON file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options describes logger construction parameters.
type Options struct {
	Level string
	// File, when set, receives JSON records with rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New constructs the logger. The returned closer flushes and closes the log
// file; it is never nil.
func New(opts Options, console io.Writer) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)

	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, newConsoleHandler(console, level))
	}

	closer := io.Closer(nopCloser{})
	if file := strings.TrimSpace(opts.File); file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		// the file always gets debug detail
		handlers = append(handlers, slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = rotator
	}

	return slog.New(newFanoutHandler(handlers...)), closer, nil
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func ptermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return pterm.LogLevelDebug
	case level <= slog.LevelInfo:
		return pterm.LogLevelInfo
	case level <= slog.LevelWarn:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}

// newConsoleHandler renders records with pterm's logger, filtered to level.
func newConsoleHandler(w io.Writer, level slog.Level) slog.Handler {
	logger := pterm.DefaultLogger.WithLevel(ptermLevel(level)).WithWriter(w)
	return &levelHandler{Handler: pterm.NewSlogHandler(logger), min: level}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
