// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the structured loggers shared by the CLI and the
// pipeline stages.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a logger.
type Options struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Output defaults to os.Stderr.
	Output io.Writer

	// Prefix names the component, e.g. "fetch".
	Prefix string

	// JSON switches from the human-readable text format to JSON lines.
	JSON bool

	ReportTimestamp bool
}

// ParseLevel converts a level name to a log.Level. Unknown names map to
// info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// New creates a logger from opts.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l := log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: opts.ReportTimestamp,
	})
	if opts.JSON {
		l.SetFormatter(log.JSONFormatter)
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
