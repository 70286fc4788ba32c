package algo

import (
	"math"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(values ...float64) *grid.Grid {
	return grid.Wrap(grid.Geometry{Rows: 1, Cols: len(values), CellSize: 30}, values)
}

func TestSummarize(t *testing.T) {
	g := row(2, 4, 4, 4, 5, 5, 7, 9, math.NaN())
	s, err := Summarize("test", g, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Count)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.StdDev, 1e-12)
}

func TestTruncatedBounds(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		mask     []float64
		numSD    float64
		expected Bounds
	}{
		{
			name:     "wide sd keeps data range",
			values:   []float64{2, 4, 4, 4, 5, 5, 7, 9},
			numSD:    3,
			expected: Bounds{Min: 2, Max: 9},
		},
		{
			name:     "narrow sd truncates",
			values:   []float64{2, 4, 4, 4, 5, 5, 7, 9},
			numSD:    1,
			expected: Bounds{Min: 3, Max: 7},
		},
		{
			name:     "mask restricts selection",
			values:   []float64{1, 100, 3},
			mask:     []float64{1, 0, 1},
			numSD:    3,
			expected: Bounds{Min: 1, Max: 3},
		},
		{
			name:     "constant grid",
			values:   []float64{5, 5, 5},
			numSD:    3,
			expected: Bounds{Min: 5, Max: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mask *grid.Grid
			if tt.mask != nil {
				mask = row(tt.mask...)
			}
			b, err := TruncatedBounds("test", row(tt.values...), mask, tt.numSD)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected.Min, b.Min, 1e-9)
			assert.InDelta(t, tt.expected.Max, b.Max, 1e-9)
			assert.LessOrEqual(t, b.Min, b.Max)
		})
	}
}

func TestTruncatedBoundsEmptySelection(t *testing.T) {
	_, err := TruncatedBounds("empty", row(1, 2), row(0, math.NaN()), DefaultNumSD)
	var insufficient *schema.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "empty", insufficient.Operation)
}

func TestRescaleValue(t *testing.T) {
	tests := []struct {
		name                               string
		v, srcLow, srcHigh, dstLow, dstHigh float64
		expected                           float64
	}{
		{"midpoint", 5, 0, 10, 0, 100, 50},
		{"below clamps", -5, 0, 10, 0, 100, 0},
		{"above clamps", 50, 0, 10, 0, 100, 100},
		{"inverted destination", 50, 50, 500, 100, 1, 100},
		{"inverted destination upper", 500, 50, 500, 100, 1, 1},
		{"inverted destination beyond", 900, 50, 500, 100, 1, 1},
		{"degenerate below", 3, 3, 3, 1, 100, 1},
		{"degenerate above", 4, 3, 3, 1, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RescaleValue(tt.v, tt.srcLow, tt.srcHigh, tt.dstLow, tt.dstHigh)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestLinearRescalePreservesNulls(t *testing.T) {
	out := LinearRescale(row(0, math.NaN(), 10), 0, 10, 1, 100)
	assert.Equal(t, 1.0, out.At(0))
	assert.True(t, grid.IsNull(out.At(1)))
	assert.Equal(t, 100.0, out.At(2))
}

func TestStandardRescale(t *testing.T) {
	out, err := StandardRescale("std", row(10, 20, 30))
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.At(0))
	assert.InDelta(t, 50.5, out.At(1), 1e-9)
	assert.Equal(t, 100.0, out.At(2))
}

func TestSlice(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	out, err := Slice("slice", row(values...), 10)
	require.NoError(t, err)
	assert.True(t, out.Integer())

	counts := map[float64]int{}
	for i := range out.Len() {
		counts[out.At(i)]++
	}
	assert.Len(t, counts, 10)
	for class := 1.0; class <= 10; class++ {
		assert.Equal(t, 10, counts[class], "class %v", class)
	}
	assert.Equal(t, 1.0, out.At(0))
	assert.Equal(t, 10.0, out.At(99))
}

func TestSliceClass(t *testing.T) {
	breaks := []float64{10, 20}
	assert.Equal(t, 1, SliceClass(5, breaks))
	assert.Equal(t, 1, SliceClass(10, breaks))
	assert.Equal(t, 2, SliceClass(15, breaks))
	assert.Equal(t, 3, SliceClass(25, breaks))
}

func TestSliceErrors(t *testing.T) {
	_, err := Slice("slice", row(math.NaN()), 10)
	var insufficient *schema.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)

	_, err = Slice("slice", row(1, 2), 0)
	var cfgErr *schema.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

// FuzzRescaleValue checks that rescaled values never leave the destination range.
func FuzzRescaleValue(f *testing.F) {
	f.Add(5.0, 0.0, 10.0, 0.0, 100.0)
	f.Add(1e9, 50.0, 500.0, 100.0, 1.0)
	f.Add(-3.0, 2.0, 2.0, 1.0, 100.0)

	f.Fuzz(func(t *testing.T, v, srcLow, srcHigh, dstLow, dstHigh float64) {
		for _, x := range []float64{v, srcLow, srcHigh, dstLow, dstHigh} {
			if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > 1e12 {
				t.Skip()
			}
		}
		got := RescaleValue(v, srcLow, srcHigh, dstLow, dstHigh)
		lo, hi := math.Min(dstLow, dstHigh), math.Max(dstLow, dstHigh)
		if got < lo || got > hi {
			t.Errorf("RescaleValue(%v, %v, %v, %v, %v) = %v outside [%v, %v]", v, srcLow, srcHigh, dstLow, dstHigh, got, lo, hi)
		}
	})
}

func BenchmarkSlice(b *testing.B) {
	geom := grid.Geometry{Rows: 256, Cols: 256, CellSize: 30}
	g := grid.Build(geom, func(i int) float64 { return float64((i * 7919) % 1000) })

	for b.Loop() {
		_, _ = Slice("bench", g, DefaultSlices)
	}
}
