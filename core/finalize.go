package core

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/algo"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// Score products written by every run, in output order.
var scoreProducts = []string{
	"runoffScore",
	"soilLossScore",
	"soilSensScore",
	"flowScore",
	"karstScore",
	"positionScore",
	"impactScore",
}

// Intermediates written only when the manifest asks for them.
var intermediateProducts = []string{
	"hydroGroup",
	"kFactor",
	"slopeFactor",
	"soilLoss",
	"curveNumber",
	"retention",
	"runoffDepth",
	"runoffVolume",
	"headwaters",
	"flowLength",
	"sinkDensity",
	"sinkScore",
	"karstDistance",
	"importanceScore",
}

// FinalizeScore clamps a score to [0, 100] and rounds it half up to whole
// numbers. Nulls stay null.
func FinalizeScore(g *grid.Grid) *grid.Grid {
	return grid.Map(grid.Clamp(g, 0, 100), func(v float64) float64 {
		return math.Floor(v + 0.5)
	}).Integerize()
}

// SummarizeLayer describes a finalized product. A grid without data cells
// reports zero statistics.
func SummarizeLayer(name, path string, g *grid.Grid) schema.LayerSummary {
	out := schema.LayerSummary{
		Name:      name,
		Path:      path,
		Cells:     g.Len(),
		DataCells: g.DataCount(),
	}
	s, err := algo.Summarize(name, g, nil)
	if err != nil {
		return out
	}
	out.Min, out.Max, out.Mean, out.StdDev = s.Min, s.Max, s.Mean, s.StdDev
	return out
}
