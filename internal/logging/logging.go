// Package logging builds the slog.Handler used by cmd/morphctl from a
// level string and a format string, the same split cambium-cli's own
// ambient logging layer uses: level and format are parsed independently,
// then combined into one handler.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Format is the log output encoding.
type Format string

const (
	// FormatJSON writes one JSON object per log record.
	FormatJSON Format = "json"
	// FormatText writes human-readable key=value records.
	FormatText Format = "text"
)

var (
	// ErrUnknownLevel indicates an unrecognized --log-level string.
	ErrUnknownLevel = errors.New("logging: unknown level")
	// ErrUnknownFormat indicates an unrecognized --log-format string.
	ErrUnknownFormat = errors.New("logging: unknown format")
)

// NewHandler parses levelStr and formatStr and returns the matching
// slog.Handler writing to w.
func NewHandler(w io.Writer, levelStr, formatStr string) (slog.Handler, error) {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	return Handler(w, level, format), nil
}

// Handler builds a slog.Handler for the given level and format.
func Handler(w io.Writer, level slog.Level, format Format) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel parses a level string ("debug", "info", "warn", "error").
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
}

// ParseFormat parses a format string ("text" or "json").
func ParseFormat(format string) (Format, error) {
	if format == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(format))
	if slices.Contains([]Format{FormatJSON, FormatText}, f) {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
