// Package parquet provides data structures and functions for exporting
// watershed impact runs, layer statistics and final score cells to Parquet
// files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single pipeline run with metadata.
// This struct maps to the wim_runs database table.
type Run struct {
	// RunID is the store-assigned identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the identifier printed in logs and run summaries
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// LayersWritten is the number of output products written
	LayersWritten int32 `parquet:"layers_written,snappy"`

	// UnitsFailed is the number of soil or basin units skipped
	UnitsFailed int32 `parquet:"units_failed,snappy"`

	// ConfigParams contains the JSON-encoded manifest (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// LayerStats holds the summary statistics of one output product.
// This struct maps to the wim_layer_stats database table.
type LayerStats struct {
	RunID      int64     `parquet:"run_id,snappy"`
	LayerName  string    `parquet:"layer_name,snappy,dict"`
	RecordTime time.Time `parquet:"record_time,snappy"`
	Cells      int32     `parquet:"cells,snappy"`
	DataCells  int32     `parquet:"data_cells,snappy"`
	MinValue   float64   `parquet:"min_value,snappy"`
	MaxValue   float64   `parquet:"max_value,snappy"`
	MeanValue  float64   `parquet:"mean_value,snappy"`
	StdDev     float64   `parquet:"std_dev,snappy"`
	ScoreLabel string    `parquet:"score_label,snappy,dict"`
	OutputPath *string   `parquet:"output_path,optional,snappy"`
}

// ScoreCell is one data cell of a final score grid, located by its centre.
type ScoreCell struct {
	Layer string  `parquet:"layer,snappy,dict"`
	Row   int32   `parquet:"row,snappy"`
	Col   int32   `parquet:"col,snappy"`
	X     float64 `parquet:"x,snappy"`
	Y     float64 `parquet:"y,snappy"`
	Value float64 `parquet:"value,snappy"`
}

// writeRows writes rows to outputPath with a schema inferred from T.
func writeRows[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteLayerStatsParquet writes a slice of LayerStats structs to a Parquet file.
func WriteLayerStatsParquet(data []LayerStats, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteScoreCellsParquet writes a slice of ScoreCell structs to a Parquet file.
func WriteScoreCellsParquet(data []ScoreCell, outputPath string) error {
	return writeRows(data, outputPath)
}

// GridCells flattens the data cells of g into rows tagged with layer.
// Null cells are skipped.
func GridCells(layer string, g *grid.Grid) []ScoreCell {
	geo := g.Geometry()
	out := make([]ScoreCell, 0, g.DataCount())
	for i := range g.Len() {
		v := g.At(i)
		if grid.IsNull(v) {
			continue
		}
		row, col := geo.RowCol(i)
		x, y := geo.CellCenter(i)
		out = append(out, ScoreCell{Layer: layer, Row: int32(row), Col: int32(col), X: x, Y: y, Value: v})
	}
	return out
}

// ConvertRunRecords converts store records to the Parquet row type.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	out := make([]Run, len(records))
	for i, r := range records {
		out[i] = Run{
			RunID:         r.RunID,
			RunUUID:       r.RunUUID,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			LayersWritten: r.LayersWritten,
			UnitsFailed:   r.UnitsFailed,
			ConfigParams:  r.ConfigParams,
		}
	}
	return out
}

// ConvertLayerStatsRecords converts store records to the Parquet row type.
func ConvertLayerStatsRecords(records []schema.LayerStatsRecord) []LayerStats {
	out := make([]LayerStats, len(records))
	for i, r := range records {
		out[i] = LayerStats(r)
	}
	return out
}
