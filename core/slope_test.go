package core

import (
	"errors"
	"math"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlopeScore(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		input     schema.SlopeInput
		transform schema.SlopeTransform
		expected  float64
		delta     float64
	}{
		{"trunclin flat", 1, schema.SlopeDegrees, schema.TruncLinear, 0, 0},
		{"trunclin below floor", 0.5, schema.SlopeDegrees, schema.TruncLinear, 0, 0},
		{"trunclin steep", 45, schema.SlopeDegrees, schema.TruncLinear, 100, 0},
		{"trunclin midpoint", 15.5, schema.SlopeDegrees, schema.TruncLinear, 50, 1e-9},
		{"trunclin percent flat", 100 * math.Tan(math.Pi/180), schema.SlopePercent, schema.TruncLinear, 0, 1e-9},
		{"trunclin percent steep", 100, schema.SlopePercent, schema.TruncLinear, 100, 0},
		{"truncsin saturates at 30 degrees", 30, schema.SlopeDegrees, schema.TruncSine, 100, 0},
		{"truncsin 10 degrees", 10, schema.SlopeDegrees, schema.TruncSine, 35, 0},
		{"truncsin beyond saturation", 60, schema.SlopeDegrees, schema.TruncSine, 100, 0},
		{"truncsin flat percent", 0, schema.SlopePercent, schema.TruncSine, 0, 0},
		{"rusle gentle percent", 5, schema.SlopePercent, schema.RUSLE, 10.8*math.Sin(math.Atan(0.05)) + 0.03, 1e-9},
		{"rusle steep percent", 20, schema.SlopePercent, schema.RUSLE, 16.8*math.Sin(math.Atan(0.2)) - 0.5, 1e-9},
		{"rusle steep degrees", 10, schema.SlopeDegrees, schema.RUSLE, 16.8*math.Sin(10*math.Pi/180) - 0.5, 1e-9},
		{"alias input", 45, "DEG", schema.TruncLinear, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SlopeScore(tt.value, tt.input, tt.transform)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, tt.delta)
		})
	}
}

func TestSlopeScoreRejectsBadModes(t *testing.T) {
	var cfgErr *schema.ConfigurationError

	_, err := SlopeScore(10, "RADIANS", schema.TruncLinear)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = SlopeScore(10, schema.SlopeDegrees, "CUBIC")
	assert.True(t, errors.As(err, &cfgErr))

	_, err = SlopeScore(10, schema.SlopeElevation, schema.RUSLE)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestRUSLEContinuity(t *testing.T) {
	theta := math.Atan(rusleInflectionPercent / 100)
	assert.InDelta(t, rusleS(theta, true), rusleS(theta, false), 0.01)
}

func TestPercentRise(t *testing.T) {
	geo := grid.Geometry{Rows: 3, Cols: 3, CellSize: 10}
	elev := grid.Build(geo, func(i int) float64 {
		_, col := geo.RowCol(i)
		return 10 * float64(col)
	})

	slope := PercentRise(elev, 1)
	assert.InDelta(t, 100, slope.AtRC(1, 1), 1e-9)
	// Edge neighbours take the centre value, halving the gradient.
	assert.InDelta(t, 50, slope.AtRC(1, 0), 1e-9)

	scaled := PercentRise(elev, 0.5)
	assert.InDelta(t, 50, scaled.AtRC(1, 1), 1e-9)
}

func TestSlopeTransformElevation(t *testing.T) {
	geo := grid.Geometry{Rows: 3, Cols: 4, CellSize: 10}
	elev := grid.Build(geo, func(i int) float64 {
		row, col := geo.RowCol(i)
		if row == 2 && col == 3 {
			return nan
		}
		return 10 * float64(col)
	})

	res, err := SlopeTransform(elev, schema.SlopeElevation, schema.TruncLinear, 1)
	require.NoError(t, err)
	require.NotNil(t, res.Slope)
	assert.InDelta(t, 100, res.Slope.AtRC(1, 1), 1e-9)
	assert.InDelta(t, 100, res.Score.AtRC(1, 1), 1e-9)
	assert.True(t, grid.IsNull(res.Score.AtRC(2, 3)))

	res, err = SlopeTransform(elev, schema.SlopeDegrees, schema.TruncLinear, 1)
	require.NoError(t, err)
	assert.Nil(t, res.Slope)
}

func BenchmarkSlopeTransform(b *testing.B) {
	geo := grid.Geometry{Rows: 256, Cols: 256, CellSize: 10}
	elev := grid.Build(geo, func(i int) float64 {
		row, col := geo.RowCol(i)
		return float64(row*3 + col*2)
	})
	for b.Loop() {
		_, _ = SlopeTransform(elev, schema.SlopeElevation, schema.RUSLE, 1)
	}
}
