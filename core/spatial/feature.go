// Package spatial converts vector features into grids on a processing
// lattice: rasterization, overlap counts, kernel density and Euclidean
// distance.
package spatial

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// Feature is a geometry with its attribute row. Geometries are polygons,
// lines or points already projected into the processing CRS.
type Feature struct {
	Geom  geom.Geom
	Attrs map[string]string
}

// Attr returns the raw attribute value for name, matched case-insensitively.
func (f Feature) Attr(name string) (string, bool) {
	if v, ok := f.Attrs[name]; ok {
		return v, true
	}
	for k, v := range f.Attrs {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Float parses the attribute name as a number.
func (f Feature) Float(name string) (float64, error) {
	raw, ok := f.Attr(name)
	if !ok {
		return 0, fmt.Errorf("attribute %s not found", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return v, nil
}

// WeightedPoint is a point carrying a population weight.
type WeightedPoint struct {
	geom.Point
	Weight float64
}

// Centroids reduces each feature to its centroid weighted by the numeric
// attribute weightField. An empty weightField gives every point weight 1.
func Centroids(features []Feature, weightField string) ([]WeightedPoint, error) {
	out := make([]WeightedPoint, 0, len(features))
	for i, f := range features {
		var c geom.Point
		switch g := f.Geom.(type) {
		case geom.Point:
			c = g
		case *geom.Point:
			c = *g
		case geom.Polygonal:
			c = g.Centroid()
		default:
			b := f.Geom.Bounds()
			c = geom.Point{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
		}
		w := 1.0
		if weightField != "" {
			v, err := f.Float(weightField)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			w = v
		}
		out = append(out, WeightedPoint{Point: c, Weight: w})
	}
	return out, nil
}
