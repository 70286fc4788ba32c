package core

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/algo"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/spatial"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/vector"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/ctessum/geom"
)

// FlowOptions tunes FlowScore.
type FlowOptions struct {
	MinDist  float64
	MaxDist  float64
	Discount float64
}

// DefaultFlowOptions returns the standard flow distance thresholds in metres.
func DefaultFlowOptions() FlowOptions {
	return FlowOptions{MinDist: 50, MaxDist: 500, Discount: 0.9}
}

// KernelOptions tunes SinkholeDensity.
type KernelOptions struct {
	SearchRadius float64
	AreaScale    float64
}

// DefaultKernelOptions returns a 5 km radius with densities per hectare.
func DefaultKernelOptions() KernelOptions {
	return KernelOptions{SearchRadius: 5000, AreaScale: 10000}
}

// KarstOptions tunes KarstScore.
type KarstOptions struct {
	MinDist float64
	MaxDist float64
}

// DefaultKarstOptions returns the standard karst distance thresholds in metres.
func DefaultKarstOptions() KarstOptions {
	return KarstOptions{MinDist: 100, MaxDist: 5000}
}

// FlowScore rescales overland flow distance so that cells within MinDist
// score 100 and cells beyond MaxDist score 1. With a headwater indicator,
// cells outside it are null and non-headwater cells are multiplied by Discount.
func FlowScore(flowLength, headwater *grid.Grid, opts FlowOptions) (*grid.Grid, error) {
	const op = "FlowScore"
	if err := grid.CheckAligned(op, flowLength, headwater); err != nil {
		return nil, err
	}
	return grid.Build(flowLength.Geometry(), func(i int) float64 {
		v := flowLength.At(i)
		if math.IsNaN(v) {
			return v
		}
		score := algo.RescaleValue(v, opts.MinDist, opts.MaxDist, 100, 1)
		if headwater == nil {
			return score
		}
		switch h := headwater.At(i); {
		case math.IsNaN(h):
			return math.NaN()
		case h == 0:
			return score * opts.Discount
		}
		return score
	}), nil
}

// HeadwaterIndicator rasterizes catchments with their headwater start flag,
// looked up by the catchment id attribute normalized as the start flag table
// keys are. Catchments without a matching
// flowline get 0. When boundary is non-empty only catchments intersecting it
// are kept.
func HeadwaterIndicator(catchments []spatial.Feature, startFlags map[string]float64, idField string, boundary []spatial.Feature, pc grid.ProcessingContext) (*grid.Grid, error) {
	const op = "HeadwaterIndicator"
	selected := catchments
	if len(boundary) > 0 {
		selected = intersecting(catchments, boundary)
	}
	if len(selected) == 0 {
		return nil, &schema.InsufficientDataError{Operation: op, Detail: "no catchments inside the boundary"}
	}
	flag := func(f spatial.Feature) (float64, bool) {
		id, _ := f.Attr(idField)
		return startFlags[vector.NormalizeKey(id)], true
	}
	return pc.Restrict(op, spatial.Rasterize(selected, flag, pc.Geometry))
}

// intersecting keeps the features that overlap or touch any boundary polygon.
func intersecting(features, boundary []spatial.Feature) []spatial.Feature {
	ix := spatial.NewIndex(boundary)
	var out []spatial.Feature
	for _, f := range features {
		p, ok := f.Geom.(geom.Polygonal)
		if !ok {
			continue
		}
		for _, bi := range ix.Intersecting(p.Bounds()) {
			bp, ok := ix.Feature(bi).Geom.(geom.Polygonal)
			if ok && polygonsMeet(p, bp) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// polygonsMeet reports whether a and b share any point. Shared area is
// checked first; a vertex of either lying inside or on the edge of the other
// covers shared edges and corners.
func polygonsMeet(a, b geom.Polygonal) bool {
	if in := a.Intersection(b); in != nil && in.Area() > 0 {
		return true
	}
	return anyVertexIn(a, b) || anyVertexIn(b, a)
}

func anyVertexIn(a, b geom.Polygonal) bool {
	for _, poly := range a.Polygons() {
		for _, ring := range poly {
			for _, pt := range ring {
				if pt.Within(b) != geom.Outside {
					return true
				}
			}
		}
	}
	return false
}

// SinkholeDensity converts sinkhole polygons to centroids and computes a
// kernel density weighted by areaField over the processing area.
func SinkholeDensity(sinks []spatial.Feature, areaField string, pc grid.ProcessingContext, opts KernelOptions) (*grid.Grid, error) {
	if !(opts.SearchRadius > 0) {
		return nil, &schema.ConfigurationError{Field: "search radius", Value: formatFloat(opts.SearchRadius), Reason: "must be positive"}
	}
	pts, err := spatial.Centroids(sinks, areaField)
	if err != nil {
		return nil, err
	}
	return spatial.KernelDensity(pts, pc, opts.SearchRadius, opts.AreaScale), nil
}

// SinkholeScore rescales sinkhole density onto [1, 100]. The upper bound is
// the truncated maximum over cells with positive density, cut to an integer
// unless that would drop it below 1. Output is restricted to clip.
func SinkholeScore(density, clip *grid.Grid) (*grid.Grid, error) {
	const op = "SinkholeScore"
	if err := grid.CheckAligned(op, density, clip); err != nil {
		return nil, err
	}
	positive := grid.Map(density, func(v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	})
	b, err := algo.TruncatedBounds(op, density, positive, algo.DefaultNumSD)
	if err != nil {
		return nil, err
	}
	hi := math.Trunc(b.Max)
	if hi < 1 {
		hi = b.Max
	}
	return grid.Con(op, algo.LinearRescale(density, 0, hi, 1, 100), clip)
}

// KarstResult holds the karst distance products.
type KarstResult struct {
	Distance  *grid.Grid
	DistScore *grid.Grid
	Score     *grid.Grid
}

// KarstScore scores proximity to karst geology: 100 within MinDist and 1
// beyond MaxDist. When densityScore is given the final score is its mean with
// the distance score, ignoring nulls in either.
func KarstScore(karst []spatial.Feature, pc grid.ProcessingContext, clip, densityScore *grid.Grid, opts KarstOptions) (KarstResult, error) {
	src, err := pc.Restrict("KarstScore", spatial.Rasterize(karst, spatial.ConstantValue(1), pc.Geometry))
	if err != nil {
		return KarstResult{}, err
	}
	dist, err := spatial.EuclideanDistance("KarstScore", src)
	if err != nil {
		return KarstResult{}, err
	}
	return KarstScoreFromDistance(dist, pc, clip, densityScore, opts)
}

// KarstScoreFromDistance finishes KarstScore from a precomputed distance grid.
func KarstScoreFromDistance(dist *grid.Grid, pc grid.ProcessingContext, clip, densityScore *grid.Grid, opts KarstOptions) (KarstResult, error) {
	const op = "KarstScore"
	if err := grid.CheckAligned(op, dist, clip, densityScore); err != nil {
		return KarstResult{}, err
	}
	dist, err := pc.Restrict(op, dist)
	if err != nil {
		return KarstResult{}, err
	}
	distScore, err := grid.Con(op, algo.LinearRescale(dist, opts.MinDist, opts.MaxDist, 100, 1), clip)
	if err != nil {
		return KarstResult{}, err
	}
	res := KarstResult{Distance: dist, DistScore: distScore, Score: distScore}
	if densityScore != nil {
		res.Score, err = grid.CellMean(op, densityScore, distScore)
		if err != nil {
			return KarstResult{}, err
		}
	}
	return res, nil
}

// PositionScore is the per-cell maximum of the flow and karst scores.
func PositionScore(flow, karst *grid.Grid) (*grid.Grid, error) {
	return grid.CellMax("PositionScore", flow, karst)
}
