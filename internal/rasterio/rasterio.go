// Package rasterio reads and writes grids on disk. The format is chosen by
// file extension: ESRI ASCII grids (.asc) or zstd-compressed binary grids (.wgz).
package rasterio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// FormatOf returns the raster format implied by the path extension.
func FormatOf(path string) (schema.RasterFormat, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	f := schema.RasterFormat(ext)
	if _, ok := schema.ValidRasterFormats[f]; !ok {
		return "", &schema.ConfigurationError{Field: "raster format", Value: ext, Allowed: []string{string(schema.ASCIIGrid), string(schema.CompressedGrid)}}
	}
	return f, nil
}

// Open reads the grid at path. It satisfies grid.Opener.
func Open(path string) (*grid.Grid, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var g *grid.Grid
	switch f {
	case schema.CompressedGrid:
		g, err = DecodeGrid(file)
	default:
		var crs string
		if b, perr := os.ReadFile(prjPath(path)); perr == nil {
			crs = strings.TrimSpace(string(b))
		}
		g, err = ReadASCII(file, crs)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return g, nil
}

// Write stores g at path, creating parent directories as needed.
func Write(path string, g *grid.Grid, precision int) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	switch f {
	case schema.CompressedGrid:
		err = EncodeGrid(file, g)
	default:
		err = WriteASCII(file, g, precision)
		if err == nil && g.Geometry().CRS != "" {
			err = os.WriteFile(prjPath(path), []byte(g.Geometry().CRS), 0o644)
		}
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func prjPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
}
