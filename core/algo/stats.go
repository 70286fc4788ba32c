// Package algo holds the statistical primitives that turn raw grids into
// bounded scores: summaries, outlier-truncated bounds and rescaling.
package algo

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultNumSD is the number of standard deviations kept by TruncatedBounds.
const DefaultNumSD = 3.0

// Summary describes the data cells of a grid under a selection.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// selectedValues collects the non-null cells of g selected by mask.
func selectedValues(g, mask *grid.Grid) []float64 {
	out := make([]float64, 0, g.Len())
	for i := range g.Len() {
		v := g.At(i)
		if grid.IsNull(v) || !grid.Selected(mask, i) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Summarize computes population statistics over the data cells of g selected
// by mask. A nil mask selects the whole grid.
func Summarize(op string, g, mask *grid.Grid) (Summary, error) {
	if err := grid.CheckAligned(op, g, mask); err != nil {
		return Summary{}, err
	}
	vals := selectedValues(g, mask)
	if len(vals) == 0 {
		return Summary{}, &schema.InsufficientDataError{Operation: op}
	}
	mean, sd := stat.PopMeanStdDev(vals, nil)
	return Summary{
		Count:  len(vals),
		Min:    floats.Min(vals),
		Max:    floats.Max(vals),
		Mean:   mean,
		StdDev: sd,
	}, nil
}

// Bounds is a closed value interval.
type Bounds struct {
	Min float64
	Max float64
}

// TruncatedBounds returns the data range of g under mask, narrowed to
// mean ± numSD standard deviations. The result always lies inside the
// observed range and never inverts.
func TruncatedBounds(op string, g, mask *grid.Grid, numSD float64) (Bounds, error) {
	s, err := Summarize(op, g, mask)
	if err != nil {
		return Bounds{}, err
	}
	lo := math.Max(s.Min, s.Mean-numSD*s.StdDev)
	hi := math.Min(s.Max, s.Mean+numSD*s.StdDev)
	if lo > hi {
		// Only reachable with a negative numSD.
		lo, hi = s.Min, s.Max
	}
	return Bounds{Min: lo, Max: hi}, nil
}
