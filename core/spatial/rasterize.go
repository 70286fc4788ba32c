package spatial

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/ctessum/geom"
)

// ValueFunc returns the burn value for a feature, or false to skip it.
type ValueFunc func(f Feature) (float64, bool)

// ConstantValue burns every feature with v.
func ConstantValue(v float64) ValueFunc {
	return func(Feature) (float64, bool) { return v, true }
}

// cellRange returns the rows and columns whose centres may fall inside b.
func cellRange(g grid.Geometry, b *geom.Bounds) (r0, r1, c0, c1 int, ok bool) {
	c0 = max(0, int(math.Floor((b.Min.X-g.XMin)/g.CellSize-0.5)))
	c1 = min(g.Cols-1, int(math.Ceil((b.Max.X-g.XMin)/g.CellSize-0.5)))
	r0 = max(0, int(math.Floor((g.YMax-b.Max.Y)/g.CellSize-0.5)))
	r1 = min(g.Rows-1, int(math.Ceil((g.YMax-b.Min.Y)/g.CellSize-0.5)))
	return r0, r1, c0, c1, r0 <= r1 && c0 <= c1
}

// Rasterize burns features onto the lattice. Polygons cover the cells whose
// centres they contain, lines the cells they pass through and points the
// cell they fall in. Where features overlap the larger value wins. Cells no
// feature touches are null.
func Rasterize(features []Feature, value ValueFunc, geo grid.Geometry) *grid.Grid {
	values := make([]float64, geo.Len())
	for i := range values {
		values[i] = math.NaN()
	}
	burn := func(i int, v float64) {
		if cur := values[i]; math.IsNaN(cur) || v > cur {
			values[i] = v
		}
	}
	for _, f := range features {
		v, ok := value(f)
		if !ok {
			continue
		}
		switch g := f.Geom.(type) {
		case geom.Point:
			burnPoint(geo, g, v, burn)
		case *geom.Point:
			burnPoint(geo, *g, v, burn)
		case geom.MultiPoint:
			for _, p := range g {
				burnPoint(geo, p, v, burn)
			}
		case geom.LineString:
			burnLine(geo, g, v, burn)
		case geom.MultiLineString:
			for _, l := range g {
				burnLine(geo, l, v, burn)
			}
		case geom.Polygonal:
			burnPolygon(geo, g, v, burn)
		}
	}
	return grid.Wrap(geo, values)
}

func burnPoint(geo grid.Geometry, p geom.Point, v float64, burn func(int, float64)) {
	if row, col, ok := geo.CellOf(p.X, p.Y); ok {
		burn(geo.Index(row, col), v)
	}
}

// burnLine samples each segment at quarter-cell steps.
func burnLine(geo grid.Geometry, l geom.LineString, v float64, burn func(int, float64)) {
	if len(l) == 1 {
		burnPoint(geo, l[0], v, burn)
		return
	}
	step := geo.CellSize / 4
	for i := 1; i < len(l); i++ {
		a, b := l[i-1], l[i]
		n := max(1, int(math.Ceil(math.Hypot(b.X-a.X, b.Y-a.Y)/step)))
		for k := 0; k <= n; k++ {
			t := float64(k) / float64(n)
			burnPoint(geo, geom.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}, v, burn)
		}
	}
}

func burnPolygon(geo grid.Geometry, p geom.Polygonal, v float64, burn func(int, float64)) {
	r0, r1, c0, c1, ok := cellRange(geo, p.Bounds())
	if !ok {
		return
	}
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			i := geo.Index(r, c)
			x, y := geo.CellCenter(i)
			if (geom.Point{X: x, Y: y}).Within(p) != geom.Outside {
				burn(i, v)
			}
		}
	}
}

// CountOverlaps returns, for every cell, how many polygonal features contain
// its centre. Cells outside every feature hold 0.
func CountOverlaps(features []Feature, geo grid.Geometry) *grid.Grid {
	counts := make([]float64, geo.Len())
	for _, f := range features {
		p, ok := f.Geom.(geom.Polygonal)
		if !ok {
			continue
		}
		r0, r1, c0, c1, ok := cellRange(geo, p.Bounds())
		if !ok {
			continue
		}
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				i := geo.Index(r, c)
				x, y := geo.CellCenter(i)
				if (geom.Point{X: x, Y: y}).Within(p) != geom.Outside {
					counts[i]++
				}
			}
		}
	}
	return grid.Wrap(geo, counts)
}
