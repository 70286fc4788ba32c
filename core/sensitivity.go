package core

import (
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/algo"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
)

// SensitivityScores holds the soil sensitivity score and its two components.
type SensitivityScores struct {
	SoilLoss    *grid.Grid
	Runoff      *grid.Grid
	Sensitivity *grid.Grid
}

// SoilSensitivity rescales soil loss and runoff to [1, 100] using bounds
// truncated independently for each input, then averages them. Outputs are
// restricted to mask when one is given.
func SoilSensitivity(soilLoss, runoff, mask *grid.Grid) (SensitivityScores, error) {
	const op = "SoilSensitivity"
	if err := grid.CheckAligned(op, soilLoss, runoff, mask); err != nil {
		return SensitivityScores{}, err
	}
	slScore, err := truncatedScore(op+" soil loss", soilLoss, mask)
	if err != nil {
		return SensitivityScores{}, err
	}
	roScore, err := truncatedScore(op+" runoff", runoff, mask)
	if err != nil {
		return SensitivityScores{}, err
	}
	sens, err := grid.Zip(op, slScore, roScore, func(a, b float64) float64 { return (a + b) / 2 })
	if err != nil {
		return SensitivityScores{}, err
	}
	return SensitivityScores{SoilLoss: slScore, Runoff: roScore, Sensitivity: sens}, nil
}

// truncatedScore maps the outlier-truncated range of g under mask onto [1, 100].
func truncatedScore(op string, g, mask *grid.Grid) (*grid.Grid, error) {
	b, err := algo.TruncatedBounds(op, g, mask, algo.DefaultNumSD)
	if err != nil {
		return nil, err
	}
	return grid.Con(op, algo.LinearRescale(g, b.Min, b.Max, 1, 100), mask)
}
