package core

import (
	"math"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/stretchr/testify/assert"
)

var nan = math.NaN()

// rowGeometry is a single row of 10 m cells.
func rowGeometry(n int) grid.Geometry {
	return grid.Geometry{Rows: 1, Cols: n, CellSize: 10, XMin: 0, YMax: 10}
}

// rowGrid wraps values as a single-row grid.
func rowGrid(vals ...float64) *grid.Grid {
	return grid.Wrap(rowGeometry(len(vals)), vals)
}

// assertCells compares grid cells against want, treating NaN as equal to NaN.
func assertCells(t *testing.T, want []float64, g *grid.Grid, delta float64) {
	t.Helper()
	if !assert.Equal(t, len(want), g.Len(), "cell count") {
		return
	}
	for i, w := range want {
		got := g.At(i)
		if math.IsNaN(w) {
			assert.True(t, math.IsNaN(got), "cell %d: want null, got %v", i, got)
			continue
		}
		assert.InDelta(t, w, got, delta, "cell %d", i)
	}
}
