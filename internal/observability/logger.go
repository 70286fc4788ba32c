// Package observability builds the structured logger and Prometheus metrics
// shared by the pipeline and the CLI.
package observability

import (
	"io"
	"log/slog"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// NewLogger returns a slog logger writing to w in the given format.
func NewLogger(w io.Writer, level slog.Level, format schema.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == schema.JSONLog {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
