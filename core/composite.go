package core

import (
	"math"
	"strconv"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/algo"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/spatial"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// NamedGrid pairs an output product name with its grid.
type NamedGrid struct {
	Name string
	Grid *grid.Grid
}

// ImpactScore is the per-cell mean of the position and soil sensitivity scores.
func ImpactScore(position, soilSens *grid.Grid) (*grid.Grid, error) {
	return grid.CellMean("ImpactScore", position, soilSens)
}

// WeightedLayer is a polygon layer of resource areas and its weight.
type WeightedLayer struct {
	Name     string
	Features []spatial.Feature
	Weight   float64
}

// ImportanceScore counts the overlapping features of each layer per cell,
// weights and sums the counts, and scales the sum so the maximum is 100.
// Cells no layer covers are null.
func ImportanceScore(layers []WeightedLayer, pc grid.ProcessingContext) (*grid.Grid, error) {
	const op = "ImportanceScore"
	if len(layers) == 0 {
		return nil, &schema.InsufficientDataError{Operation: op, Detail: "no importance layers"}
	}
	weighted := make([]*grid.Grid, 0, len(layers))
	for _, l := range layers {
		counts := spatial.CountOverlaps(l.Features, pc.Geometry)
		weighted = append(weighted, grid.Build(pc.Geometry, func(i int) float64 {
			c := counts.At(i)
			if c == 0 || !pc.Selected(i) {
				return math.NaN()
			}
			return c * l.Weight
		}))
	}
	sum, err := grid.CellSum(op, weighted...)
	if err != nil {
		return nil, err
	}
	s, err := algo.Summarize(op, sum, nil)
	if err != nil {
		return nil, err
	}
	if s.Max == 0 {
		return nil, &schema.InsufficientDataError{Operation: op, Detail: "weighted coverage is zero everywhere"}
	}
	return grid.Map(sum, func(v float64) float64 { return 100 * v / s.Max }), nil
}

// PriorityMasks select the land eligible for each priority. A nil mask skips
// that output.
type PriorityMasks struct {
	Cons *grid.Grid
	Rest *grid.Grid
	Mgmt *grid.Grid
}

// PriorityOptions tunes PriorityScores.
type PriorityOptions struct {
	Rescale schema.RescaleMode
	Slices  int
}

// DefaultPriorityOptions slices the general priority into deciles.
func DefaultPriorityOptions() PriorityOptions {
	return PriorityOptions{Rescale: schema.SliceRescale, Slices: algo.DefaultSlices}
}

// Priorities holds the general priority and the per land-use priorities.
// Rescaled equals General when no rescale was applied.
type Priorities struct {
	General  *grid.Grid
	Rescaled *grid.Grid
	Mode     schema.RescaleMode
	Cons     *grid.Grid
	Rest     *grid.Grid
	Mgmt     *grid.Grid
}

// PriorityScores weights the impact score by importance, optionally rescales
// it, and restricts the result to each land-use mask. An importance that is
// constantly 1 leaves the impact score unchanged.
func PriorityScores(impact *grid.Grid, importance grid.Field, masks PriorityMasks, opts PriorityOptions) (Priorities, error) {
	const op = "PriorityScores"
	mode, err := schema.ParseRescaleMode(string(opts.Rescale))
	if err != nil {
		return Priorities{}, err
	}
	if err := grid.CheckAligned(op, impact, masks.Cons, masks.Rest, masks.Mgmt); err != nil {
		return Priorities{}, err
	}
	if err := importance.CheckAligned(op, impact.Geometry()); err != nil {
		return Priorities{}, err
	}

	general := impact
	if !importance.IsConstant(1) {
		general = grid.Build(impact.Geometry(), func(i int) float64 {
			imp, v := importance.At(i), impact.At(i)
			if math.IsNaN(imp) || math.IsNaN(v) {
				return math.NaN()
			}
			return imp / 100 * v
		})
	}

	res := Priorities{General: general, Rescaled: general, Mode: mode}
	switch mode {
	case schema.SliceRescale:
		n := opts.Slices
		if n == 0 {
			n = algo.DefaultSlices
		}
		res.Rescaled, err = algo.Slice(op, general, n)
	case schema.StandardRescale:
		res.Rescaled, err = algo.StandardRescale(op, general)
	}
	if err != nil {
		return Priorities{}, err
	}

	for _, m := range []struct {
		mask *grid.Grid
		dst  **grid.Grid
	}{
		{masks.Cons, &res.Cons},
		{masks.Rest, &res.Rest},
		{masks.Mgmt, &res.Mgmt},
	} {
		if m.mask == nil {
			continue
		}
		if *m.dst, err = grid.Con(op, res.Rescaled, m.mask); err != nil {
			return Priorities{}, err
		}
	}
	return res, nil
}

// Layers names the priority products, appending "_" + tag when tag is set.
func (p Priorities) Layers(tag string) []NamedGrid {
	suffix := ""
	if tag != "" {
		suffix = "_" + tag
	}
	out := []NamedGrid{{Name: "genPriority" + suffix, Grid: p.General}}
	switch p.Mode {
	case schema.SliceRescale:
		out = append(out, NamedGrid{Name: "genPriority_slice" + suffix, Grid: p.Rescaled})
	case schema.StandardRescale:
		out = append(out, NamedGrid{Name: "genPriority_rscl" + suffix, Grid: p.Rescaled})
	}
	for _, l := range []NamedGrid{
		{Name: "consPriority" + suffix, Grid: p.Cons},
		{Name: "restPriority" + suffix, Grid: p.Rest},
		{Name: "mgmtPriority" + suffix, Grid: p.Mgmt},
	} {
		if l.Grid != nil {
			out = append(out, l)
		}
	}
	return out
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
