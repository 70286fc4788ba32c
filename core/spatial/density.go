package spatial

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// KernelDensity estimates a weighted point density with the quartic kernel
// over the cells selected by pc. Each point contributes
// 3/(π r²) · w · (1 - (d/r)²)² to cells closer than radius. The result is
// multiplied by scale, so a scale of 10000 on a metre CRS gives density per
// hectare. Cells outside the mask are null.
func KernelDensity(points []WeightedPoint, pc grid.ProcessingContext, radius, scale float64) *grid.Grid {
	tree := rtree.NewTree(25, 50)
	for i := range points {
		tree.Insert(&points[i])
	}
	norm := 3 / (math.Pi * radius * radius)
	r2 := radius * radius
	return grid.Build(pc.Geometry, func(i int) float64 {
		if !pc.Selected(i) {
			return math.NaN()
		}
		x, y := pc.Geometry.CellCenter(i)
		box := &geom.Bounds{
			Min: geom.Point{X: x - radius, Y: y - radius},
			Max: geom.Point{X: x + radius, Y: y + radius},
		}
		sum := 0.0
		for _, g := range tree.SearchIntersect(box) {
			p := g.(*WeightedPoint)
			d2 := (p.X-x)*(p.X-x) + (p.Y-y)*(p.Y-y)
			if d2 >= r2 {
				continue
			}
			k := 1 - d2/r2
			sum += norm * p.Weight * k * k
		}
		return sum * scale
	})
}
