package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRunResult outputs a run summary, dispatching on the configured format.
func WriteRunResult(result schema.RunResult, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunCSV(w, result.Layers, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunTable(w, result, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	}
	return nil
}

// writeRunTable renders the layer summary and any skipped units as tables.
func writeRunTable(w io.Writer, result schema.RunResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Layer", "Path", "Cells", "Data", "Min", "Max", "Mean", "StdDev", "Label"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := getMaxTablePathWidth(cfg)
	var data [][]string
	for _, l := range schema.EnrichLayers(result.Layers) {
		label := l.Label
		if cfg.UseColors {
			label = contract.GetColorLabel(l.Mean)
		}
		data = append(data, []string{
			strconv.Itoa(l.Rank),
			l.Name,
			contract.TruncatePath(l.Path, pathWidth),
			fmt.Sprintf(intFmt, l.Cells),
			fmt.Sprintf(intFmt, l.DataCells),
			fmtFloat(l.Min),
			fmtFloat(l.Max),
			fmtFloat(l.Mean),
			fmtFloat(l.StdDev),
			label,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(result.Failures) > 0 {
		if err := writeFailureTable(w, result.Failures); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Run %s (%s) wrote %d layers, skipped %d units\n",
		result.RunID, result.Name, len(result.Layers), len(result.Failures)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Pipeline completed in %v with %d workers. Cache backend: %s\n",
		result.Duration.Round(time.Millisecond), cfg.Workers, cfg.CacheBackend)
	return err
}

// writeFailureTable lists the units that were skipped during mosaicking.
func writeFailureTable(w io.Writer, failures []schema.UnitFailure) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Stage", "Unit", "Reason"})
	var data [][]string
	for _, f := range failures {
		data = append(data, []string{f.Stage, contract.TruncatePath(f.Unit, 50), f.Reason})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeRunCSV writes one row per layer.
func writeRunCSV(w io.Writer, layers []schema.LayerSummary, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"rank", "layer", "path", "cells", "data_cells", "min", "max", "mean", "std_dev", "label"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, l := range schema.EnrichLayers(layers) {
			rec := []string{
				strconv.Itoa(l.Rank),
				l.Name,
				l.Path,
				fmt.Sprintf(intFmt, l.Cells),
				fmt.Sprintf(intFmt, l.DataCells),
				fmtFloat(l.Min),
				fmtFloat(l.Max),
				fmtFloat(l.Mean),
				fmtFloat(l.StdDev),
				l.Label,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// jsonRunResult is the JSON form of a run with labelled layers.
type jsonRunResult struct {
	RunID      string                        `json:"run_id"`
	Name       string                        `json:"name"`
	StartTime  time.Time                     `json:"start_time"`
	DurationMs int64                         `json:"duration_ms"`
	Layers     []schema.EnrichedLayerSummary `json:"layers"`
	Failures   []schema.UnitFailure          `json:"failures"`
}

func writeRunJSON(w io.Writer, result schema.RunResult) error {
	failures := result.Failures
	if failures == nil {
		failures = []schema.UnitFailure{}
	}
	return writeJSON(w, jsonRunResult{
		RunID:      result.RunID,
		Name:       result.Name,
		StartTime:  result.StartTime,
		DurationMs: result.Duration.Milliseconds(),
		Layers:     schema.EnrichLayers(result.Layers),
		Failures:   failures,
	})
}
