package grid

import (
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// ProcessingContext carries the reference lattice and optional mask used by
// operations that rasterize, reduce over a selection or restrict output.
type ProcessingContext struct {
	Geometry Geometry
	Mask     *Grid
}

// NewProcessingContext validates the geometry and the mask alignment.
func NewProcessingContext(geom Geometry, mask *Grid) (ProcessingContext, error) {
	if err := geom.Validate(); err != nil {
		return ProcessingContext{}, &schema.ConfigurationError{Field: "processing geometry", Value: geom.CRS, Reason: err.Error()}
	}
	pc := ProcessingContext{Geometry: geom}
	return pc.WithMask(mask)
}

// WithMask returns a copy of the context using mask. A nil mask clears it.
func (pc ProcessingContext) WithMask(mask *Grid) (ProcessingContext, error) {
	if mask != nil {
		if d := pc.Geometry.Diff(mask.Geometry()); d != "" {
			return ProcessingContext{}, &schema.InputAlignmentError{Operation: "ProcessingContext", Detail: d}
		}
	}
	pc.Mask = mask
	return pc, nil
}

// Selected reports whether cell i is inside the context mask.
func (pc ProcessingContext) Selected(i int) bool {
	return Selected(pc.Mask, i)
}

// Restrict nulls the cells of g outside the context mask.
func (pc ProcessingContext) Restrict(op string, g *Grid) (*Grid, error) {
	if d := pc.Geometry.Diff(g.Geometry()); d != "" {
		return nil, &schema.InputAlignmentError{Operation: op, Detail: d}
	}
	return Con(op, g, pc.Mask)
}
