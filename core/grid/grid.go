// Package grid provides the raster value types shared by every scoring stage:
// geometry, immutable grids with NaN nulls, constant-or-grid fields, masks and
// elementwise kernels.
package grid

import (
	"fmt"
	"math"
)

// NoData is the sentinel written for null cells when a grid is persisted.
const NoData = -9999.0

// alignTolerance is the relative tolerance used when comparing geometries.
const alignTolerance = 1e-6

// Geometry describes the lattice of a grid. The origin is the upper-left
// corner and rows run north to south.
type Geometry struct {
	Rows     int
	Cols     int
	CellSize float64
	XMin     float64
	YMax     float64
	CRS      string
}

// Len returns the number of cells.
func (g Geometry) Len() int { return g.Rows * g.Cols }

// XMax returns the right edge.
func (g Geometry) XMax() float64 { return g.XMin + float64(g.Cols)*g.CellSize }

// YMin returns the bottom edge.
func (g Geometry) YMin() float64 { return g.YMax - float64(g.Rows)*g.CellSize }

// CellArea returns the area of one cell in squared map units.
func (g Geometry) CellArea() float64 { return g.CellSize * g.CellSize }

// Index converts a row and column into a row-major cell index.
func (g Geometry) Index(row, col int) int { return row*g.Cols + col }

// RowCol converts a cell index into its row and column.
func (g Geometry) RowCol(i int) (row, col int) { return i / g.Cols, i % g.Cols }

// CellCenter returns the map coordinates of the centre of cell i.
func (g Geometry) CellCenter(i int) (x, y float64) {
	row, col := g.RowCol(i)
	return g.XMin + (float64(col)+0.5)*g.CellSize, g.YMax - (float64(row)+0.5)*g.CellSize
}

// CellOf returns the cell containing the map coordinate, if any.
func (g Geometry) CellOf(x, y float64) (row, col int, ok bool) {
	if x < g.XMin || x >= g.XMax() || y <= g.YMin() || y > g.YMax {
		return 0, 0, false
	}
	col = int((x - g.XMin) / g.CellSize)
	row = int((g.YMax - y) / g.CellSize)
	if row >= g.Rows || col >= g.Cols {
		return 0, 0, false
	}
	return row, col, true
}

// Validate checks that the geometry describes a usable lattice.
func (g Geometry) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("grid dimensions must be positive (received %dx%d)", g.Rows, g.Cols)
	}
	if !(g.CellSize > 0) || math.IsInf(g.CellSize, 0) {
		return fmt.Errorf("cell size must be positive (received %g)", g.CellSize)
	}
	return nil
}

// Diff describes how two geometries differ. It returns an empty string when
// they share cell size, origin and dimensions.
func (g Geometry) Diff(o Geometry) string {
	switch {
	case g.Rows != o.Rows || g.Cols != o.Cols:
		return fmt.Sprintf("dimensions %dx%d vs %dx%d", g.Rows, g.Cols, o.Rows, o.Cols)
	case !nearlyEqual(g.CellSize, o.CellSize, g.CellSize):
		return fmt.Sprintf("cell size %g vs %g", g.CellSize, o.CellSize)
	case !nearlyEqual(g.XMin, o.XMin, g.CellSize) || !nearlyEqual(g.YMax, o.YMax, g.CellSize):
		return fmt.Sprintf("origin (%g, %g) vs (%g, %g)", g.XMin, g.YMax, o.XMin, o.YMax)
	}
	return ""
}

func nearlyEqual(a, b, scale float64) bool {
	return math.Abs(a-b) <= alignTolerance*math.Max(1, math.Abs(scale))
}

// Grid is an immutable raster of float64 cells. Null cells hold NaN.
type Grid struct {
	geom    Geometry
	values  []float64
	noData  float64
	integer bool
}

// IsNull reports whether a cell value is null.
func IsNull(v float64) bool { return math.IsNaN(v) }

// Null returns the in-memory null value.
func Null() float64 { return math.NaN() }

// New returns a grid with every cell null.
func New(geom Geometry) *Grid {
	return Filled(geom, math.NaN())
}

// Filled returns a grid with every cell set to v.
func Filled(geom Geometry, v float64) *Grid {
	values := make([]float64, geom.Len())
	for i := range values {
		values[i] = v
	}
	return Wrap(geom, values)
}

// FromValues copies values into a new grid. Cells equal to noData become null.
func FromValues(geom Geometry, values []float64, noData float64) (*Grid, error) {
	if len(values) != geom.Len() {
		return nil, fmt.Errorf("grid has %d cells but %d values were supplied", geom.Len(), len(values))
	}
	cp := make([]float64, len(values))
	for i, v := range values {
		if v == noData {
			v = math.NaN()
		}
		cp[i] = v
	}
	g := Wrap(geom, cp)
	g.noData = noData
	return g, nil
}

// Wrap takes ownership of values without copying. Callers must not modify
// the slice afterwards.
func Wrap(geom Geometry, values []float64) *Grid {
	if len(values) != geom.Len() {
		panic(fmt.Sprintf("grid: %d values for %d cells", len(values), geom.Len()))
	}
	return &Grid{geom: geom, values: values, noData: NoData}
}

// Build evaluates fn for every cell index in parallel and wraps the result.
func Build(geom Geometry, fn func(i int) float64) *Grid {
	values := make([]float64, geom.Len())
	parallelFor(len(values), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			values[i] = fn(i)
		}
	})
	return Wrap(geom, values)
}

// Geometry returns the grid lattice.
func (g *Grid) Geometry() Geometry { return g.geom }

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.values) }

// At returns the value of cell i.
func (g *Grid) At(i int) float64 { return g.values[i] }

// AtRC returns the value at a row and column.
func (g *Grid) AtRC(row, col int) float64 { return g.values[g.geom.Index(row, col)] }

// Values returns a copy of the cell values.
func (g *Grid) Values() []float64 {
	cp := make([]float64, len(g.values))
	copy(cp, g.values)
	return cp
}

// NoData returns the persistence sentinel for null cells.
func (g *Grid) NoData() float64 { return g.noData }

// Integer reports whether the grid holds integerized values.
func (g *Grid) Integer() bool { return g.integer }

// DataCount returns the number of non-null cells.
func (g *Grid) DataCount() int {
	n := 0
	for _, v := range g.values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// IsConstant reports whether every non-null cell holds the value v and at
// least one cell has data.
func (g *Grid) IsConstant(v float64) bool {
	seen := false
	for _, x := range g.values {
		if math.IsNaN(x) {
			continue
		}
		if x != v {
			return false
		}
		seen = true
	}
	return seen
}

// Integerize truncates every non-null cell toward zero and marks the grid as
// integer valued.
func (g *Grid) Integerize() *Grid {
	out := Map(g, math.Trunc)
	out.integer = true
	return out
}

// WithNoData returns a shallow copy that persists nulls with a different sentinel.
func (g *Grid) WithNoData(noData float64) *Grid {
	cp := *g
	cp.noData = noData
	return &cp
}
