package core

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// ScenarioScore places each cell of a case between its best and worst case
// on a 0 to 100 scale. From the conservation perspective a value at the best
// case scores 100; from the restoration perspective a value at the worst case
// does. Cells where best and worst coincide are null.
func ScenarioScore(current, worst, best *grid.Grid, perspective schema.Perspective, mask *grid.Grid) (*grid.Grid, error) {
	const op = "ScenarioScore"
	perspective, err := schema.ParsePerspective(string(perspective))
	if err != nil {
		return nil, err
	}
	if err := grid.CheckAligned(op, current, worst, best, mask); err != nil {
		return nil, err
	}
	out := grid.Build(current.Geometry(), func(i int) float64 {
		return ScenarioValue(current.At(i), worst.At(i), best.At(i), perspective)
	})
	return grid.Con(op, out, mask)
}

// ScenarioValue scores a single value as ScenarioScore does a cell. The
// perspective must already be parsed. It returns NaN for null inputs and
// when worst equals best.
func ScenarioValue(current, worst, best float64, perspective schema.Perspective) float64 {
	if math.IsNaN(current) || math.IsNaN(worst) || math.IsNaN(best) || worst == best {
		return math.NaN()
	}
	var s float64
	if perspective == schema.ConservationView {
		s = 100 * (worst - current) / (worst - best)
	} else {
		s = 100 * (current - best) / (worst - best)
	}
	return math.Min(100, math.Max(0, s))
}
