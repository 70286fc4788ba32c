package core

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

const (
	truncLinMinDeg = 1.0
	truncLinMaxDeg = 30.0
	// rusleInflectionPercent is the grade at which the S-factor equation switches.
	rusleInflectionPercent = 9.0
)

// SlopeResult holds a slope transform and, for elevation input, the derived
// percent-rise slope.
type SlopeResult struct {
	Score *grid.Grid
	Slope *grid.Grid
}

// SlopeTransform converts slope or elevation into a score. Percent-rise slope
// is derived with Horn's method when input is ELEVATION, in which case zFactor
// converts elevation units into ground units.
func SlopeTransform(in *grid.Grid, input schema.SlopeInput, transform schema.SlopeTransform, zFactor float64) (SlopeResult, error) {
	input, err := schema.ParseSlopeInput(string(input))
	if err != nil {
		return SlopeResult{}, err
	}
	transform, err = schema.ParseSlopeTransform(string(transform))
	if err != nil {
		return SlopeResult{}, err
	}

	var res SlopeResult
	slope := in
	percent := input != schema.SlopeDegrees
	if input == schema.SlopeElevation {
		slope = PercentRise(in, zFactor)
		res.Slope = slope
	}

	switch transform {
	case schema.TruncLinear:
		lo, hi := truncLinMinDeg, truncLinMaxDeg
		if percent {
			lo, hi = degToPercent(lo), degToPercent(hi)
		}
		res.Score = grid.Map(slope, func(v float64) float64 { return truncLinear(v, lo, hi) })
	case schema.TruncSine:
		res.Score = grid.Map(slope, func(v float64) float64 { return truncSine(toRadians(v, percent)) })
	case schema.RUSLE:
		inflect := rusleInflectionPercent
		if !percent {
			inflect = math.Atan(inflect/100) * 180 / math.Pi
		}
		res.Score = grid.Map(slope, func(v float64) float64 {
			return rusleS(toRadians(v, percent), v < inflect)
		})
	}
	return res, nil
}

// SlopeScore is the scalar form of SlopeTransform for a single slope value.
func SlopeScore(v float64, input schema.SlopeInput, transform schema.SlopeTransform) (float64, error) {
	input, err := schema.ParseSlopeInput(string(input))
	if err != nil {
		return 0, err
	}
	if input == schema.SlopeElevation {
		return 0, &schema.ConfigurationError{Field: "slope input", Value: string(input), Reason: "elevation needs a grid"}
	}
	g := grid.Wrap(grid.Geometry{Rows: 1, Cols: 1, CellSize: 1}, []float64{v})
	res, err := SlopeTransform(g, input, transform, 1)
	if err != nil {
		return 0, err
	}
	return res.Score.At(0), nil
}

func degToPercent(deg float64) float64 { return 100 * math.Tan(deg*math.Pi/180) }

func toRadians(v float64, percent bool) float64 {
	if percent {
		return math.Atan(v / 100)
	}
	return v * math.Pi / 180
}

func truncLinear(v, lo, hi float64) float64 {
	switch {
	case v <= lo:
		return 0
	case v > hi:
		return 100
	}
	return 100 * (v - lo) / (hi - lo)
}

// truncSine rounds half up and saturates at 100, reached at 30 degrees.
func truncSine(theta float64) float64 {
	v := math.Floor(0.5 + 200*math.Sin(theta))
	if v > 100 {
		v = 100
	}
	return v
}

func rusleS(theta float64, gentle bool) float64 {
	if gentle {
		return 10.8*math.Sin(theta) + 0.03
	}
	return 16.8*math.Sin(theta) - 0.50
}

// PercentRise derives percent-rise slope from elevation with Horn's 3x3
// method. Neighbours outside the grid or null take the centre value. Null
// centres stay null.
func PercentRise(elev *grid.Grid, zFactor float64) *grid.Grid {
	geo := elev.Geometry()
	size := geo.CellSize
	return grid.Build(geo, func(i int) float64 {
		z := elev.At(i)
		if grid.IsNull(z) {
			return z
		}
		row, col := geo.RowCol(i)
		at := func(dr, dc int) float64 {
			r, c := row+dr, col+dc
			if r < 0 || r >= geo.Rows || c < 0 || c >= geo.Cols {
				return z
			}
			v := elev.AtRC(r, c)
			if grid.IsNull(v) {
				return z
			}
			return v
		}
		a, b, c := at(-1, -1), at(-1, 0), at(-1, 1)
		d, f := at(0, -1), at(0, 1)
		g, h, k := at(1, -1), at(1, 0), at(1, 1)
		dzdx := ((c + 2*f + k) - (a + 2*d + g)) / (8 * size)
		dzdy := ((g + 2*h + k) - (a + 2*b + c)) / (8 * size)
		return 100 * zFactor * math.Hypot(dzdx, dzdy)
	})
}
