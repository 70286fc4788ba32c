package vector

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/spatial"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapUnit struct {
	geom.Polygon
	MUKEY  string
	HYDGRP string
}

func writeUnits(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "units.shp")
	enc, err := shp.NewEncoder(path, mapUnit{})
	require.NoError(t, err)
	rows := []mapUnit{
		{Polygon: geom.Polygon{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}}, MUKEY: "101", HYDGRP: "B/D"},
		{Polygon: geom.Polygon{{{X: 20, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 0}}}, MUKEY: "102", HYDGRP: ""},
	}
	for _, r := range rows {
		require.NoError(t, enc.Encode(r))
	}
	enc.Close()
	return path
}

func TestReadShapefile(t *testing.T) {
	path := writeUnits(t)

	features, err := ReadShapefile(context.Background(), path, "", "MUKEY", "HYDGRP")
	require.NoError(t, err)
	require.Len(t, features, 2)

	v, ok := features[0].Attr("hydgrp")
	require.True(t, ok)
	assert.Equal(t, "B/D", v)
	v, _ = features[1].Attr("HYDGRP")
	assert.Equal(t, "", v)

	polys, dropped := Polygons(features)
	assert.Len(t, polys, 2)
	assert.Zero(t, dropped)

	pts, err := spatial.Centroids(polys, "")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, pts[0].X, 1e-9)
	assert.InDelta(t, 25.0, pts[1].X, 1e-9)
}

func TestReadShapefileErrors(t *testing.T) {
	path := writeUnits(t)
	ctx := context.Background()

	_, err := ReadShapefile(ctx, filepath.Join(t.TempDir(), "missing.shp"), "")
	assert.Error(t, err)

	_, err = ReadShapefile(ctx, path, "", "KFFACT")
	assert.ErrorContains(t, err, "missing attribute column KFFACT")

	_, err = ReadShapefile(ctx, path, "+proj=longlat +datum=WGS84")
	assert.ErrorIs(t, err, ErrNoProjection)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ReadShapefile(cancelled, path, "", "MUKEY")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeAttributeTable(t *testing.T) {
	src := "\ufeffNHDPlusID,GNIS_Name,StartFlag\n" +
		"10000100.0,Mill Creek,1\n" +
		"10000200,,0\n" +
		"10000300,Unnamed,\n"

	flags, err := DecodeAttributeTable(strings.NewReader(src), "nhdplusid", "StartFlag")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"10000100": 1, "10000200": 0}, flags)
}

func TestDecodeAttributeTableErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "read header"},
		{"no key column", "id,StartFlag\n1,1\n", "column NHDPlusID not found"},
		{"no value column", "NHDPlusID,flag\n1,1\n", "column StartFlag not found"},
		{"bad number", "NHDPlusID,StartFlag\n1,yes\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAttributeTable(strings.NewReader(tt.src), "NHDPlusID", "StartFlag")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReadAttributeTableMissingFile(t *testing.T) {
	_, err := ReadAttributeTable(filepath.Join(t.TempDir(), "flags.csv"), "id", "flag")
	assert.Error(t, err)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "42", NormalizeKey(" 42.0 "))
	assert.Equal(t, "42.5", NormalizeKey("42.5"))
}
