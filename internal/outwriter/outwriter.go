// Package outwriter renders run summaries and reference tables as text
// tables, CSV or JSON.
package outwriter

import (
	"os"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRun prints a pipeline run summary using the configured output format.
func (ow *OutWriter) WriteRun(result schema.RunResult, cfg *contract.Config) error {
	return WriteRunResult(result, cfg)
}

// WriteCurveNumbers prints the runoff curve number table.
func (ow *OutWriter) WriteCurveNumbers(rows []schema.CurveNumberRow, cfg *contract.Config) error {
	return WriteCurveNumberTable(rows, cfg)
}

// getMaxTablePathWidth returns the width left for the output path column
// after the fixed statistics columns.
func getMaxTablePathWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // CI and pipes
		} else {
			termWidth = detected
		}
	}

	// Rank, layer, cell counts, five statistics and label, plus borders.
	const baseWidth = 95
	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
