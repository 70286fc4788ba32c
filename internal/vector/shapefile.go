// Package vector reads polygon, line and point sources and their join tables.
package vector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/spatial"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
)

// ErrNoProjection is returned when reprojection is requested for a shapefile
// without a .prj sidecar.
var ErrNoProjection = errors.New("shapefile has no .prj file")

// ReadShapefile decodes every row of the shapefile at path, keeping the named
// attribute columns. When targetCRS is a proj4 string the geometries are
// reprojected into it; an empty targetCRS leaves coordinates as stored.
func ReadShapefile(ctx context.Context, path, targetCRS string, fields ...string) ([]spatial.Feature, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer dec.Close()

	var trans proj.Transformer
	if targetCRS != "" {
		if trans, err = transformer(dec, path, targetCRS); err != nil {
			return nil, err
		}
	}

	var features []spatial.Feature
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, attrs, more := dec.DecodeRowFields(fields...)
		if !more {
			break
		}
		for _, name := range fields {
			if _, ok := attrs[name]; !ok {
				return nil, fmt.Errorf("%s: missing attribute column %s", path, name)
			}
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, fmt.Errorf("%s: reproject row %d: %w", path, len(features), err)
			}
		}
		features = append(features, spatial.Feature{Geom: g, Attrs: trimAttrs(attrs)})
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return features, nil
}

func transformer(dec *shp.Decoder, path, targetCRS string) (proj.Transformer, error) {
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	if _, err := os.Stat(prj); err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoProjection)
	}
	src, err := dec.SR()
	if err != nil {
		return nil, fmt.Errorf("%s: read projection: %w", path, err)
	}
	dst, err := proj.Parse(targetCRS)
	if err != nil {
		return nil, fmt.Errorf("parse grid crs: %w", err)
	}
	trans, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("%s: build transform: %w", path, err)
	}
	return trans, nil
}

func trimAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = strings.TrimSpace(v)
	}
	return out
}

// Polygons keeps the polygonal features and reports how many were dropped.
func Polygons(features []spatial.Feature) ([]spatial.Feature, int) {
	out := features[:0:0]
	for _, f := range features {
		if _, ok := f.Geom.(geom.Polygonal); ok {
			out = append(out, f)
		}
	}
	return out, len(features) - len(out)
}
