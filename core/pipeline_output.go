package core

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/parquet"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/rasterio"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// outputDir is the config override or the manifest output directory.
func (p *Pipeline) outputDir() string {
	if p.cfg.OutputDir != "" {
		return p.cfg.OutputDir
	}
	return p.m.Path(p.m.Output.Dir)
}

// rasterFormat prefers the runtime setting, then the manifest, then ASCII.
func (p *Pipeline) rasterFormat() schema.RasterFormat {
	switch {
	case p.cfg.RasterFormat != "":
		return p.cfg.RasterFormat
	case p.m.Output.Format != "":
		return schema.RasterFormat(p.m.Output.Format)
	}
	return schema.ASCIIGrid
}

// finalize clamps and rounds the score products, writes them with any
// requested intermediates and records their statistics.
func (p *Pipeline) finalize(ctx context.Context, analysisID int64, tracked bool) ([]schema.LayerSummary, error) {
	type product struct {
		name  string
		grid  *grid.Grid
		score bool
	}
	var products []product
	for _, name := range slices.Concat(scoreProducts, p.priority) {
		if g := p.layers[name]; g != nil {
			products = append(products, product{name, FinalizeScore(g), true})
		}
	}
	if p.m.Output.Intermediates {
		for _, name := range intermediateProducts {
			if g := p.layers[name]; g != nil {
				products = append(products, product{name, g, false})
			}
		}
	}

	dir := p.outputDir()
	format := p.rasterFormat()
	var summaries []schema.LayerSummary
	var cells []parquet.ScoreCell
	for _, prod := range products {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}
		path := filepath.Join(dir, prod.name+"."+string(format))
		if err := rasterio.Write(path, prod.grid, p.cfg.Precision); err != nil {
			return summaries, err
		}
		s := SummarizeLayer(prod.name, path, prod.grid)
		summaries = append(summaries, s)
		p.metrics.LayersWritten.Inc()
		p.metrics.CellsWritten.Add(float64(s.DataCells))
		p.logger.Info("layer written", "layer", prod.name, "path", path, "cells", s.DataCells)

		if tracked {
			p.recordLayer(analysisID, s)
		}
		if p.cfg.Parquet && prod.score {
			cells = append(cells, parquet.GridCells(prod.name, prod.grid)...)
		}
	}

	if p.cfg.Parquet && len(cells) > 0 {
		path := filepath.Join(dir, p.m.Name+"_cells.parquet")
		if err := parquet.WriteScoreCellsParquet(cells, path); err != nil {
			return summaries, fmt.Errorf("export score cells: %w", err)
		}
		p.logger.Info("score cells exported", "path", path, "rows", len(cells))
	}
	return summaries, nil
}

// beginAnalysis registers the run with the analysis store. Tracking failures
// are logged and never stop the run.
func (p *Pipeline) beginAnalysis(runID string, start time.Time) (int64, bool) {
	if p.store == nil {
		return 0, false
	}
	params := map[string]any{
		"manifest":        p.m.Name,
		"workers":         p.cfg.Workers,
		"raster_format":   string(p.rasterFormat()),
		"slope_transform": p.m.Slope.Transform,
		"soil_units":      len(p.m.Soils.Units),
		"flow_units":      len(p.m.Flow.Units),
		"rescale":         p.m.Priority.Rescale,
	}
	id, err := p.store.BeginAnalysis(runID, start, params)
	if err != nil {
		p.logger.Warn("run tracking failed", "operation", "begin", "error", err)
		return 0, false
	}
	return id, true
}

func (p *Pipeline) recordLayer(analysisID int64, s schema.LayerSummary) {
	err := p.store.RecordLayerStats(analysisID, s.Name, schema.LayerStats{
		RecordTime: p.clock.Now(),
		Cells:      s.Cells,
		DataCells:  s.DataCells,
		Min:        s.Min,
		Max:        s.Max,
		Mean:       s.Mean,
		StdDev:     s.StdDev,
		OutputPath: s.Path,
	})
	if err != nil {
		p.logger.Warn("run tracking failed", "operation", "layer", "layer", s.Name, "error", err)
	}
}
