package algo

import (
	"math"
	"slices"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"gonum.org/v1/gonum/stat"
)

// DefaultSlices is the number of quantile classes used by Slice.
const DefaultSlices = 10

// RescaleValue maps v from [srcLow, srcHigh] onto [dstLow, dstHigh] and
// saturates outside the source interval. Either interval may be inverted.
// A degenerate source interval acts as a step at srcLow.
func RescaleValue(v, srcLow, srcHigh, dstLow, dstHigh float64) float64 {
	lo, hi := math.Min(dstLow, dstHigh), math.Max(dstLow, dstHigh)
	if srcLow == srcHigh {
		if v <= srcLow {
			return dstLow
		}
		return dstHigh
	}
	out := dstLow + (v-srcLow)*(dstHigh-dstLow)/(srcHigh-srcLow)
	return math.Min(hi, math.Max(lo, out))
}

// LinearRescale applies RescaleValue to every data cell of g.
func LinearRescale(g *grid.Grid, srcLow, srcHigh, dstLow, dstHigh float64) *grid.Grid {
	return grid.Map(g, func(v float64) float64 {
		return RescaleValue(v, srcLow, srcHigh, dstLow, dstHigh)
	})
}

// StandardRescale maps the data range of g onto [1, 100].
func StandardRescale(op string, g *grid.Grid) (*grid.Grid, error) {
	s, err := Summarize(op, g, nil)
	if err != nil {
		return nil, err
	}
	return LinearRescale(g, s.Min, s.Max, 1, 100), nil
}

// QuantileBreaks returns the n-1 interior class breaks of the data cells of g
// using the empirical quantile of the sorted values.
func QuantileBreaks(op string, g *grid.Grid, n int) ([]float64, error) {
	if n < 1 {
		return nil, &schema.ConfigurationError{Field: "slice count", Value: "0", Reason: "must be at least 1"}
	}
	vals := selectedValues(g, nil)
	if len(vals) == 0 {
		return nil, &schema.InsufficientDataError{Operation: op}
	}
	slices.Sort(vals)
	breaks := make([]float64, 0, n-1)
	for k := 1; k < n; k++ {
		breaks = append(breaks, stat.Quantile(float64(k)/float64(n), stat.Empirical, vals, nil))
	}
	return breaks, nil
}

// SliceClass returns the 1-based class of v given ascending breaks.
func SliceClass(v float64, breaks []float64) int {
	class := 1
	for _, b := range breaks {
		if v > b {
			class++
		}
	}
	return min(class, len(breaks)+1)
}

// Slice reclassifies g into n classes of roughly equal cell count. Class 1
// holds the lowest values.
func Slice(op string, g *grid.Grid, n int) (*grid.Grid, error) {
	breaks, err := QuantileBreaks(op, g, n)
	if err != nil {
		return nil, err
	}
	out := grid.Map(g, func(v float64) float64 {
		return float64(SliceClass(v, breaks))
	})
	return out.Integerize(), nil
}
