// Package schema has shared models, enums and error types for all parts of the
// watershed impact model.
package schema

import "time"

// LayerSummary describes one finalized product of a pipeline run.
type LayerSummary struct {
	Name      string  `json:"name"`
	Path      string  `json:"path,omitempty"`
	Cells     int     `json:"cells"`
	DataCells int     `json:"data_cells"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
}

// UnitFailure records a processing unit skipped by a per-unit fold.
type UnitFailure struct {
	Stage  string `json:"stage"`
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

// RunResult is the outcome of a full pipeline run.
type RunResult struct {
	RunID     string         `json:"run_id"`
	Name      string         `json:"name"`
	StartTime time.Time      `json:"start_time"`
	Duration  time.Duration  `json:"duration"`
	Layers    []LayerSummary `json:"layers"`
	Failures  []UnitFailure  `json:"failures,omitempty"`
}

// CurveNumberRow is one land-cover class of the runoff curve number table.
type CurveNumberRow struct {
	Code  int     `json:"code"`
	Class string  `json:"class"`
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	C     float64 `json:"c"`
	D     float64 `json:"d"`
}

// EnrichedLayerSummary adds presentation data to a LayerSummary.
type EnrichedLayerSummary struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	LayerSummary
}

// Scoring label constants.
const (
	CriticalValue = "Critical"
	HighValue     = "High"
	ModerateValue = "Moderate"
	LowValue      = "Low"
)

// GetPlainLabel returns a plain text label indicating the criticality level
// of a score on the 0-100 scale.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 80:
		return CriticalValue
	case score >= 60:
		return HighValue
	case score >= 40:
		return ModerateValue
	default:
		return LowValue
	}
}

// EnrichLayers adds rank and label to a list of layer summaries.
func EnrichLayers(layers []LayerSummary) []EnrichedLayerSummary {
	output := make([]EnrichedLayerSummary, len(layers))
	for i, l := range layers {
		output[i] = EnrichedLayerSummary{
			Rank:         i + 1,
			Label:        GetPlainLabel(l.Mean),
			LayerSummary: l,
		}
	}
	return output
}
