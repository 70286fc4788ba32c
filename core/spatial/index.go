package spatial

import (
	"slices"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

type indexed struct {
	geom.Polygonal
	idx int
}

// Index answers point-in-polygon queries over a feature collection.
// Non-polygonal features are ignored.
type Index struct {
	tree     *rtree.Rtree
	features []Feature
}

// NewIndex builds an rtree over the polygonal features.
func NewIndex(features []Feature) *Index {
	tree := rtree.NewTree(25, 50)
	for i, f := range features {
		if p, ok := f.Geom.(geom.Polygonal); ok {
			tree.Insert(&indexed{Polygonal: p, idx: i})
		}
	}
	return &Index{tree: tree, features: features}
}

// Containing returns the indices of features whose polygon contains (x, y),
// in ascending order. Points on an edge count as contained.
func (ix *Index) Containing(x, y float64) []int {
	pt := geom.Point{X: x, Y: y}
	var out []int
	for _, g := range ix.tree.SearchIntersect(pt.Bounds()) {
		item := g.(*indexed)
		if pt.Within(item.Polygonal) != geom.Outside {
			out = append(out, item.idx)
		}
	}
	slices.Sort(out)
	return out
}

// Intersecting returns the indices of features whose bounds overlap b.
func (ix *Index) Intersecting(b *geom.Bounds) []int {
	var out []int
	for _, g := range ix.tree.SearchIntersect(b) {
		out = append(out, g.(*indexed).idx)
	}
	slices.Sort(out)
	return out
}

// Feature returns the feature at index i.
func (ix *Index) Feature(i int) Feature { return ix.features[i] }
