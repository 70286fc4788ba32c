package schema

import "time"

// LayerStats represents summary statistics for one product of a run.
type LayerStats struct {
	RecordTime time.Time
	Cells      int
	DataCells  int
	Min        float64
	Max        float64
	Mean       float64
	StdDev     float64
	OutputPath string
}

// RunRecord represents a row from the wim_runs table.
type RunRecord struct {
	RunID         int64
	RunUUID       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	LayersWritten int32
	UnitsFailed   int32
	ConfigParams  *string
}

// LayerStatsRecord represents a row from the wim_layer_stats table.
type LayerStatsRecord struct {
	RunID      int64
	LayerName  string
	RecordTime time.Time
	Cells      int32
	DataCells  int32
	MinValue   float64
	MaxValue   float64
	MeanValue  float64
	StdDev     float64
	ScoreLabel string
	OutputPath *string
}
