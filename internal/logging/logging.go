// SPDX-License-Identifier: EPL-2.0

// Package logging sets up the process-wide slog logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var ErrUnknownLevel = errors.New("unexpected log level")

// ParseLevel maps none/error/warn/info/debug to a level. ok is false for none.
func ParseLevel(level string) (lvl slog.Level, ok bool, err error) {
	switch strings.ToLower(level) {
	case "none":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn":
		return slog.LevelWarn, true, nil
	case "info", "":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	default:
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
}

// ConfigureDefaultLogger installs the default slog logger. With no logFile
// it writes text to stdout; otherwise JSON to logFile, whose handle is
// returned for the caller to close.
func ConfigureDefaultLogger(logLevel, logFile string, opts slog.HandlerOptions) (*os.File, error) {
	level, enabled, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	if !enabled {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return nil, nil
	}
	opts.Level = level

	if logFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &opts)))
		return nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &opts)))
	return f, nil
}

// Discard is a logger that drops everything, for components built without one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
