package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	dErrors "pebble/pkg/domain-errors"
)

// New returns a structured logger writing to stdout.
func New(format, level string) (*slog.Logger, error) {
	return NewWithWriter(os.Stdout, format, level)
}

// NewWithWriter builds a text or JSON slog logger at the given level.
func NewWithWriter(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "unknown log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "unknown log format %q", format)
	}
}
