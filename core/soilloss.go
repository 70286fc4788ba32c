package core

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
)

// DefaultCoverFactor is the worst-case bare soil cover management factor.
const DefaultCoverFactor = 0.7

// SoilLoss computes the RUSLE potential soil loss R·K·S·C cell by cell.
func SoilLoss(r, k, s *grid.Grid, c grid.Field) (*grid.Grid, error) {
	const op = "SoilLoss"
	if err := grid.CheckAligned(op, r, k, s); err != nil {
		return nil, err
	}
	if err := c.CheckAligned(op, r.Geometry()); err != nil {
		return nil, err
	}
	return grid.Build(r.Geometry(), func(i int) float64 {
		rv, kv, sv, cv := r.At(i), k.At(i), s.At(i), c.At(i)
		if math.IsNaN(rv) || math.IsNaN(kv) || math.IsNaN(sv) || math.IsNaN(cv) {
			return math.NaN()
		}
		return rv * kv * sv * cv
	}), nil
}
