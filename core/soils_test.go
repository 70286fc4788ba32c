package core

import (
	"context"
	"errors"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/spatial"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

func TestHydroGroupCode(t *testing.T) {
	tests := []struct {
		label    string
		expected int
		ok       bool
	}{
		{"A", GroupA, true},
		{"b", GroupB, true},
		{" C ", GroupC, true},
		{"A/D", GroupD, true},
		{"B/D", GroupD, true},
		{"", GroupD, true},
		{"X", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			code, ok := HydroGroupCode(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestKFactorValue(t *testing.T) {
	assert.InDelta(t, 0.43, KFactorValue("0.43"), 1e-12)
	assert.InDelta(t, 0.05, KFactorValue(" .05 "), 1e-12)
	assert.InDelta(t, DefaultKFactor, KFactorValue(""), 0)
	assert.InDelta(t, DefaultKFactor, KFactorValue("n/a"), 0)
}

func TestSoilUnitSource(t *testing.T) {
	features := []spatial.Feature{
		{Geom: rect(0, 0, 20, 10), Attrs: map[string]string{"hydgrp": "B", "kffact": "0.24"}},
		{Geom: rect(20, 0, 30, 10), Attrs: map[string]string{"hydgrp": "C/D", "kffact": ""}},
		{Geom: rect(30, 0, 40, 10), Attrs: map[string]string{"hydgrp": "?"}},
	}
	var loaded []string
	load := func(_ context.Context, path string) ([]spatial.Feature, error) {
		loaded = append(loaded, path)
		if path == "missing" {
			return nil, errors.New("no such file")
		}
		return features, nil
	}
	geo := rowGeometry(4)

	t.Run("hydrologic group", func(t *testing.T) {
		g, err := SoilUnitSource(load, "HYDGRP", HydroGroupAttribute, geo)(context.Background(), "VA001")
		require.NoError(t, err)
		assertCells(t, []float64{GroupB, GroupB, GroupD, nan}, g, 0)
	})

	t.Run("erodibility", func(t *testing.T) {
		g, err := SoilUnitSource(load, "kffact", KFactorAttribute, geo)(context.Background(), "VA001")
		require.NoError(t, err)
		assertCells(t, []float64{0.24, 0.24, DefaultKFactor, DefaultKFactor}, g, 1e-12)
	})

	t.Run("load failure", func(t *testing.T) {
		_, err := SoilUnitSource(load, "hydgrp", HydroGroupAttribute, geo)(context.Background(), "missing")
		var missing *schema.MissingSourceError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "missing", missing.Unit)
	})

	assert.Equal(t, []string{"VA001", "VA001", "missing"}, loaded)
	assert.Equal(t, "kfactor", KFactorAttribute.String())
	assert.Equal(t, "hydrogroup", HydroGroupAttribute.String())
}

func TestSoilLoss(t *testing.T) {
	r := rowGrid(200, 200, nan)
	k := rowGrid(0.3, 0.3, 0.3)
	s := rowGrid(0.015, 1, 1)

	loss, err := SoilLoss(r, k, s, grid.Constant(0.7))
	require.NoError(t, err)
	assertCells(t, []float64{0.63, 42, nan}, loss, 1e-9)

	c := rowGrid(0.7, nan, 0.7)
	loss, err = SoilLoss(r, k, s, grid.FromGrid(c))
	require.NoError(t, err)
	assertCells(t, []float64{0.63, nan, nan}, loss, 1e-9)

	_, err = SoilLoss(r, k, rowGrid(1, 1), grid.Constant(DefaultCoverFactor))
	var alignErr *schema.InputAlignmentError
	assert.True(t, errors.As(err, &alignErr))
}
