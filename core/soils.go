package core

import (
	"context"
	"strconv"
	"strings"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/spatial"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// DefaultKFactor replaces missing soil erodibility values.
const DefaultKFactor = 0.30

// HydroGroupCode converts a hydrologic soil group label into its numeric
// code. Compound labels such as "A/D" take the latter group and blank labels
// are treated as group D. Unknown letters return false.
func HydroGroupCode(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return GroupD, true
	}
	switch s[len(s)-1] {
	case 'A':
		return GroupA, true
	case 'B':
		return GroupB, true
	case 'C':
		return GroupC, true
	case 'D':
		return GroupD, true
	}
	return 0, false
}

// KFactorValue parses a soil erodibility value, substituting DefaultKFactor
// for blank or unparseable input.
func KFactorValue(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultKFactor
	}
	return v
}

// SoilAttribute selects how a soil map unit attribute becomes a cell value.
type SoilAttribute int

// Soil attributes rasterized from map unit polygons.
const (
	HydroGroupAttribute SoilAttribute = iota
	KFactorAttribute
)

func (a SoilAttribute) String() string {
	if a == KFactorAttribute {
		return "kfactor"
	}
	return "hydrogroup"
}

// FeatureLoader reads the features of one vector source.
type FeatureLoader func(ctx context.Context, path string) ([]spatial.Feature, error)

// soilValue reads field from a map unit with the substitution rules of attr.
func soilValue(attr SoilAttribute, field string) spatial.ValueFunc {
	return func(f spatial.Feature) (float64, bool) {
		raw, _ := f.Attr(field)
		if attr == KFactorAttribute {
			return KFactorValue(raw), true
		}
		code, ok := HydroGroupCode(raw)
		return float64(code), ok
	}
}

// SoilUnitSource returns a UnitSource that loads a soil survey area and
// rasterizes one of its attributes onto geo.
func SoilUnitSource(load FeatureLoader, field string, attr SoilAttribute, geo grid.Geometry) UnitSource {
	return func(ctx context.Context, unit string) (*grid.Grid, error) {
		features, err := load(ctx, unit)
		if err != nil {
			return nil, &schema.MissingSourceError{Unit: unit, Err: err}
		}
		return spatial.Rasterize(features, soilValue(attr, field), geo), nil
	}
}
