package parquet

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"run", new(Run), []string{
			"run_id", "run_uuid", "start_time", "end_time", "run_duration_ms",
			"layers_written", "units_failed", "config_params",
		}},
		{"layer stats", new(LayerStats), []string{
			"run_id", "layer_name", "record_time", "cells", "data_cells", "min_value",
			"max_value", "mean_value", "std_dev", "score_label", "output_path",
		}},
		{"score cell", new(ScoreCell), []string{"layer", "row", "col", "x", "y", "value"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist in schema", col)
			}
		})
	}
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	duration := int32(90000)
	params := `{"name":"test"}`

	data := []Run{
		{RunID: 1, RunUUID: "a", StartTime: start, EndTime: &end, RunDurationMs: &duration, LayersWritten: 9, ConfigParams: &params},
		{RunID: 2, RunUUID: "b", StartTime: start, UnitsFailed: 2},
	}
	require.NoError(t, WriteRunsParquet(data, outputPath))

	rows, err := parquet.ReadFile[Run](outputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].RunID)
	assert.Equal(t, "a", rows[0].RunUUID)
	assert.WithinDuration(t, start, rows[0].StartTime, time.Nanosecond)
	require.NotNil(t, rows[0].EndTime)
	assert.WithinDuration(t, end, *rows[0].EndTime, time.Nanosecond)
	require.NotNil(t, rows[0].RunDurationMs)
	assert.Equal(t, duration, *rows[0].RunDurationMs)
	require.NotNil(t, rows[0].ConfigParams)
	assert.Equal(t, params, *rows[0].ConfigParams)
	assert.Equal(t, int32(9), rows[0].LayersWritten)

	assert.Nil(t, rows[1].EndTime)
	assert.Nil(t, rows[1].RunDurationMs)
	assert.Nil(t, rows[1].ConfigParams)
	assert.Equal(t, int32(2), rows[1].UnitsFailed)
}

func TestWriteLayerStatsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "layers.parquet")
	path := "outputs/impactScore.asc"
	records := []schema.LayerStatsRecord{
		{RunID: 3, LayerName: "impactScore", RecordTime: time.Unix(1700000000, 0).UTC(), Cells: 100, DataCells: 80,
			MinValue: 1, MaxValue: 100, MeanValue: 62.5, StdDev: 12.25, ScoreLabel: schema.HighValue, OutputPath: &path},
		{RunID: 3, LayerName: "flowScore", RecordTime: time.Unix(1700000000, 0).UTC(), Cells: 100, DataCells: 40,
			MinValue: 1, MaxValue: 90, MeanValue: 20, StdDev: 5, ScoreLabel: schema.LowValue},
	}
	require.NoError(t, WriteLayerStatsParquet(ConvertLayerStatsRecords(records), outputPath))

	rows, err := parquet.ReadFile[LayerStats](outputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "impactScore", rows[0].LayerName)
	assert.Equal(t, int32(80), rows[0].DataCells)
	assert.InDelta(t, 62.5, rows[0].MeanValue, 1e-9)
	assert.Equal(t, schema.HighValue, rows[0].ScoreLabel)
	require.NotNil(t, rows[0].OutputPath)
	assert.Equal(t, path, *rows[0].OutputPath)
	assert.Nil(t, rows[1].OutputPath)
}

func TestGridCellsSkipsNulls(t *testing.T) {
	geo := grid.Geometry{Rows: 2, Cols: 2, CellSize: 10, XMin: 0, YMax: 20}
	g := grid.Wrap(geo, []float64{1, math.NaN(), 3, 4})

	cells := GridCells("impactScore", g)
	require.Len(t, cells, 3)
	assert.Equal(t, ScoreCell{Layer: "impactScore", Row: 1, Col: 0, X: 5, Y: 5, Value: 3}, cells[1])

	outputPath := filepath.Join(t.TempDir(), "cells.parquet")
	require.NoError(t, WriteScoreCellsParquet(cells, outputPath))
	rows, err := parquet.ReadFile[ScoreCell](outputPath)
	require.NoError(t, err)
	assert.Equal(t, cells, rows)
}

func TestConvertRunRecords(t *testing.T) {
	params := "{}"
	records := []schema.RunRecord{{RunID: 7, RunUUID: "u", LayersWritten: 4, UnitsFailed: 1, ConfigParams: &params}}
	runs := ConvertRunRecords(records)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(7), runs[0].RunID)
	assert.Equal(t, int32(4), runs[0].LayersWritten)
	assert.Same(t, &params, runs[0].ConfigParams)
}

func TestWriteEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]Run{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "output should contain schema even if empty")
}

func TestWriteInvalidPath(t *testing.T) {
	err := WriteLayerStatsParquet(nil, "/nonexistent/directory/output.parquet")
	require.Error(t, err)
}
