// Package core implements the watershed impact scoring stages and the
// pipeline that chains them from manifest inputs to finalized score rasters.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/spatial"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/manifest"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/observability"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/rasterio"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/vector"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// FeatureSource reads the features of a vector file with the named attribute
// columns.
type FeatureSource func(ctx context.Context, path string, fields ...string) ([]spatial.Feature, error)

// Pipeline runs the scoring stages of one manifest. Every stage output is
// kept under its product name until the run finishes.
type Pipeline struct {
	m        manifest.Manifest
	cfg      *contract.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	open     grid.Opener
	features FeatureSource
	cache    contract.CacheStore
	store    contract.AnalysisStore

	pc       grid.ProcessingContext
	clip     *grid.Grid
	sensMask *grid.Grid
	layers   map[string]*grid.Grid
	priority []string
	failures []schema.UnitFailure
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the structured logger for stage events.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the metrics the run reports to.
func WithMetrics(m *observability.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock sets the time source for run timestamps and cache staleness.
func WithClock(c clockwork.Clock) PipelineOption {
	return func(p *Pipeline) { p.clock = c }
}

// WithOpener replaces the raster reader.
func WithOpener(open grid.Opener) PipelineOption {
	return func(p *Pipeline) { p.open = open }
}

// WithFeatureSource replaces the shapefile reader.
func WithFeatureSource(src FeatureSource) PipelineOption {
	return func(p *Pipeline) { p.features = src }
}

// NewPipeline prepares a run of m. The stage cache is used unless cfg
// disables it; the analysis store, when present, records the run.
func NewPipeline(m manifest.Manifest, cfg *contract.Config, mgr contract.CacheManager, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		m:       m,
		cfg:     cfg,
		logger:  observability.Discard(),
		metrics: observability.NewLocalMetrics(),
		clock:   clockwork.NewRealClock(),
		open:    rasterio.Open,
		features: func(ctx context.Context, path string, fields ...string) ([]spatial.Feature, error) {
			return vector.ReadShapefile(ctx, path, m.Grid.CRS, fields...)
		},
		layers: make(map[string]*grid.Grid),
	}
	if mgr != nil {
		if !cfg.NoCache {
			p.cache = mgr.GetCacheStore()
		}
		p.store = mgr.GetAnalysisStore()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Layer returns the named stage output, or nil when the stage did not run.
func (p *Pipeline) Layer(name string) *grid.Grid {
	return p.layers[name]
}

// LayerNames lists the stage outputs produced so far, sorted.
func (p *Pipeline) LayerNames() []string {
	names := make([]string, 0, len(p.layers))
	for name := range p.layers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run validates the manifest, runs every stage and writes the finalized
// products. A failing stage leaves the result without layers; when writing
// the products fails, the result lists the layers written before the error.
func (p *Pipeline) Run(ctx context.Context) (schema.RunResult, error) {
	if err := p.m.Validate(); err != nil {
		return schema.RunResult{}, err
	}

	start := p.clock.Now()
	result := schema.RunResult{RunID: uuid.NewString(), Name: p.m.Name, StartTime: start}
	p.logger.Info("pipeline started", "run", result.RunID, "name", p.m.Name, "workers", p.cfg.Workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	analysisID, tracked := p.beginAnalysis(result.RunID, start)

	layers, err := p.execute(ctx, analysisID, tracked)
	result.Layers = layers
	result.Failures = p.failures
	result.Duration = p.clock.Since(start)

	if tracked {
		if endErr := p.store.EndAnalysis(analysisID, p.clock.Now(), len(layers), len(p.failures)); endErr != nil {
			p.logger.Warn("run tracking failed", "operation", "end", "error", endErr)
		}
	}

	if err != nil {
		p.metrics.LastRunSuccess.Set(0)
		p.logger.Error("pipeline failed", "run", result.RunID, "error", err)
		return result, err
	}
	p.metrics.LastRunSuccess.Set(1)
	p.logger.Info("pipeline finished", "run", result.RunID, "layers", len(layers),
		"skipped_units", len(p.failures), "duration", result.Duration)
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, analysisID int64, tracked bool) ([]schema.LayerSummary, error) {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"setup", p.setup},
		{"soils", p.soils},
		{"slope", p.slope},
		{"soilLoss", p.soilLoss},
		{"runoff", p.runoff},
		{"sensitivity", p.sensitivity},
		{"headwaters", p.headwaters},
		{"flow", p.flow},
		{"sinkholes", p.sinkholes},
		{"karst", p.karst},
		{"impact", p.impact},
		{"priority", p.priorities},
	}
	for _, s := range steps {
		if err := p.stage(ctx, s.name, s.fn); err != nil {
			return nil, err
		}
	}
	return p.finalize(ctx, analysisID, tracked)
}

// stage runs one step with timing, logging and metrics.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := p.clock.Now()
	if err := fn(ctx); err != nil {
		p.metrics.StageFailures.WithLabelValues(name).Inc()
		return fmt.Errorf("stage %s: %w", name, err)
	}
	elapsed := p.clock.Since(start)
	p.metrics.StagesCompleted.WithLabelValues(name).Inc()
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	p.logger.Info("stage finished", "stage", name, "duration", elapsed)
	return nil
}

func (p *Pipeline) put(name string, g *grid.Grid) {
	if g != nil {
		p.layers[name] = g
	}
}

func (p *Pipeline) recordFailures(stage string, failures []schema.UnitFailure) {
	if len(failures) == 0 {
		return
	}
	p.failures = append(p.failures, failures...)
	p.metrics.UnitsFailed.WithLabelValues(stage).Add(float64(len(failures)))
}

// openAligned reads a manifest grid and checks it against the reference lattice.
func (p *Pipeline) openAligned(path string) (*grid.Grid, error) {
	g, err := p.open(p.m.Path(path))
	if err != nil {
		return nil, &schema.MissingSourceError{Unit: path, Err: err}
	}
	if d := p.pc.Geometry.Diff(g.Geometry()); d != "" {
		return nil, &schema.InputAlignmentError{Operation: path, Detail: d}
	}
	return g, nil
}

// optionalGrid opens path when it is set.
func (p *Pipeline) optionalGrid(path string) (*grid.Grid, error) {
	if path == "" {
		return nil, nil
	}
	return p.openAligned(path)
}

// field classifies a manifest value as a constant or an aligned grid.
func (p *Pipeline) field(name string, value any) (grid.Field, error) {
	f, err := grid.ClassifyField(value, p.openAligned)
	if err != nil {
		return grid.Field{}, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// fieldGrid expands a constant field over the reference lattice.
func (p *Pipeline) fieldGrid(f grid.Field) *grid.Grid {
	if f.Kind() == grid.ConstantField {
		return grid.Filled(p.pc.Geometry, f.Constant())
	}
	return f.Grid()
}

func (p *Pipeline) paths(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = p.m.Path(s)
	}
	return out
}

func (p *Pipeline) setup(_ context.Context) error {
	ref, err := p.open(p.m.Path(p.m.Grid.Reference))
	if err != nil {
		return &schema.MissingSourceError{Unit: p.m.Grid.Reference, Err: err}
	}
	if p.pc, err = grid.NewProcessingContext(ref.Geometry(), ref); err != nil {
		return err
	}
	p.put("procMask", ref)

	p.clip, p.sensMask = ref, ref
	if clip, err := p.optionalGrid(p.m.Grid.ClipMask); err != nil {
		return err
	} else if clip != nil {
		p.clip = clip
	}
	if sens, err := p.optionalGrid(p.m.Grid.SensitivityMask); err != nil {
		return err
	} else if sens != nil {
		p.sensMask = sens
	}
	p.logger.Debug("reference lattice", "rows", p.pc.Geometry.Rows, "cols", p.pc.Geometry.Cols,
		"cell_size", p.pc.Geometry.CellSize)
	return nil
}

// soils produces the hydrologic group and K-factor grids, either from
// prepared grids or by rasterizing and mosaicking soil survey areas.
func (p *Pipeline) soils(ctx context.Context) error {
	s := p.m.Soils
	if len(s.Units) == 0 {
		hg, err := p.openAligned(s.HydroGroup)
		if err != nil {
			return err
		}
		k, err := p.openAligned(s.KFactor)
		if err != nil {
			return err
		}
		p.put("hydroGroup", hg)
		p.put("kFactor", k)
		return nil
	}

	units := p.paths(s.Units)
	for _, a := range []struct {
		name  string
		field string
		attr  SoilAttribute
	}{
		{"hydroGroup", s.HydroGroupField, HydroGroupAttribute},
		{"kFactor", s.KFactorField, KFactorAttribute},
	} {
		load := func(ctx context.Context, path string) ([]spatial.Feature, error) {
			return p.features(ctx, path, a.field)
		}
		res, err := MosaicUnits(ctx, a.name, p.pc.Geometry, units, p.cfg.Workers,
			SoilUnitSource(load, a.field, a.attr, p.pc.Geometry), p.logger)
		p.recordFailures(a.name, res.Failures)
		if err != nil {
			return err
		}
		p.put(a.name, res.Grid)
	}
	return nil
}

func (p *Pipeline) slope(_ context.Context) error {
	s := p.m.Slope
	input, err := schema.ParseSlopeInput(s.InputType)
	if err != nil {
		return err
	}
	transform, err := schema.ParseSlopeTransform(s.Transform)
	if err != nil {
		return err
	}
	in, err := p.openAligned(s.Input)
	if err != nil {
		return err
	}

	key := stageCacheKey("slope", []any{input, transform, s.ZFactor}, in)
	factor, err := p.cached("slope", key, func() (*grid.Grid, error) {
		res, err := SlopeTransform(in, input, transform, s.ZFactor)
		if err != nil {
			return nil, err
		}
		return res.Score, nil
	})
	if err != nil {
		return err
	}
	p.put("slopeFactor", factor)
	return nil
}

func (p *Pipeline) soilLoss(_ context.Context) error {
	r, err := p.field("soil_loss.rfactor", p.m.SoilLoss.RFactor)
	if err != nil {
		return err
	}
	cover := p.m.SoilLoss.Cover
	if cover == nil {
		cover = DefaultCoverFactor
	}
	c, err := p.field("soil_loss.cover", cover)
	if err != nil {
		return err
	}
	loss, err := SoilLoss(p.fieldGrid(r), p.layers["kFactor"], p.layers["slopeFactor"], c)
	if err != nil {
		return err
	}
	p.put("soilLoss", loss)
	return nil
}

func (p *Pipeline) runoff(_ context.Context) error {
	r := p.m.Runoff
	landCover := r.LandCover
	if landCover == nil {
		landCover = WorstCaseLandCover
	}
	lc, err := p.field("runoff.land_cover", landCover)
	if err != nil {
		return err
	}
	cn, err := CurveNumber(lc, p.layers["hydroGroup"])
	if err != nil {
		return err
	}
	rain, err := p.field("runoff.rain", r.Rain)
	if err != nil {
		return err
	}

	opts := DefaultRunoffOptions()
	// Metres squared to square centimetres.
	opts.CellArea = p.pc.Geometry.CellArea() * 1e4
	if r.CellArea > 0 {
		opts.CellArea = r.CellArea
	}
	opts.RainConversion = r.RainConversion
	opts.WantVolume = r.Volume

	res, err := EventRunoff(cn, schema.CurveNumberInput, rain, opts)
	if err != nil {
		return err
	}
	p.put("curveNumber", cn)
	p.put("retention", res.Retention)
	p.put("runoffDepth", res.Depth)
	p.put("runoffVolume", res.Volume)
	return nil
}

func (p *Pipeline) sensitivity(_ context.Context) error {
	scores, err := SoilSensitivity(p.layers["soilLoss"], p.layers["runoffDepth"], p.sensMask)
	if err != nil {
		return err
	}
	p.put("soilLossScore", scores.SoilLoss)
	p.put("runoffScore", scores.Runoff)
	p.put("soilSensScore", scores.Sensitivity)
	return nil
}

func (p *Pipeline) headwaters(ctx context.Context) error {
	f := p.m.Flow
	if f.SkipDiscount || f.Catchments == "" {
		return nil
	}
	catchments, err := p.features(ctx, p.m.Path(f.Catchments), f.IDField)
	if err != nil {
		return &schema.MissingSourceError{Unit: f.Catchments, Err: err}
	}
	flags, err := vector.ReadAttributeTable(p.m.Path(f.StartFlags), f.IDField, f.FlagField)
	if err != nil {
		return &schema.MissingSourceError{Unit: f.StartFlags, Err: err}
	}
	var boundary []spatial.Feature
	if f.Boundary != "" {
		if boundary, err = p.features(ctx, p.m.Path(f.Boundary)); err != nil {
			return &schema.MissingSourceError{Unit: f.Boundary, Err: err}
		}
	}
	hw, err := HeadwaterIndicator(catchments, flags, f.IDField, boundary, p.pc)
	if err != nil {
		return err
	}
	p.put("headwaters", hw)
	return nil
}

// flow mosaics the per-basin flow length grids and scores them.
func (p *Pipeline) flow(ctx context.Context) error {
	f := p.m.Flow
	load := func(_ context.Context, unit string) (*grid.Grid, error) {
		g, err := p.open(unit)
		if err != nil {
			return nil, &schema.MissingSourceError{Unit: unit, Err: err}
		}
		return g, nil
	}
	res, err := MosaicUnits(ctx, "flow", p.pc.Geometry, p.paths(f.Units), p.cfg.Workers, load, p.logger)
	p.recordFailures("flow", res.Failures)
	if err != nil {
		return err
	}

	score, err := FlowScore(res.Grid, p.layers["headwaters"], FlowOptions{
		MinDist:  f.MinDist,
		MaxDist:  f.MaxDist,
		Discount: f.Discount,
	})
	if err != nil {
		return err
	}
	if score, err = p.pc.Restrict("FlowScore", score); err != nil {
		return err
	}
	p.put("flowLength", res.Grid)
	p.put("flowScore", score)
	return nil
}

func (p *Pipeline) sinkholes(ctx context.Context) error {
	k := p.m.Karst
	if k.Sinkholes == "" {
		return nil
	}
	features, err := p.features(ctx, p.m.Path(k.Sinkholes), k.AreaField)
	if err != nil {
		return &schema.MissingSourceError{Unit: k.Sinkholes, Err: err}
	}
	sinks, dropped := vector.Polygons(features)
	if dropped > 0 {
		p.logger.Warn("non-polygon sinkholes ignored", "count", dropped)
	}
	pts, err := spatial.Centroids(sinks, k.AreaField)
	if err != nil {
		return err
	}

	opts := KernelOptions{SearchRadius: k.SearchRadius, AreaScale: k.AreaScale}
	key := stageCacheKey("sinkDensity", []any{opts.SearchRadius, opts.AreaScale, pts}, p.pc.Mask)
	density, err := p.cached("sinkDensity", key, func() (*grid.Grid, error) {
		return SinkholeDensity(sinks, k.AreaField, p.pc, opts)
	})
	if err != nil {
		return err
	}
	score, err := SinkholeScore(density, p.clip)
	if err != nil {
		return err
	}
	p.put("sinkDensity", density)
	p.put("sinkScore", score)
	return nil
}

// karst scores distance to karst geology, averaged with the sinkhole score.
// Without karst polygons the sinkhole score stands alone.
func (p *Pipeline) karst(ctx context.Context) error {
	k := p.m.Karst
	sinkScore := p.layers["sinkScore"]
	if k.KarstPolygons == "" {
		p.put("karstScore", sinkScore)
		return nil
	}
	features, err := p.features(ctx, p.m.Path(k.KarstPolygons))
	if err != nil {
		return &schema.MissingSourceError{Unit: k.KarstPolygons, Err: err}
	}
	src, err := p.pc.Restrict("KarstScore", spatial.Rasterize(features, spatial.ConstantValue(1), p.pc.Geometry))
	if err != nil {
		return err
	}
	dist, err := p.cached("karstDistance", stageCacheKey("karstDistance", nil, src), func() (*grid.Grid, error) {
		return spatial.EuclideanDistance("KarstScore", src)
	})
	if err != nil {
		return err
	}
	res, err := KarstScoreFromDistance(dist, p.pc, p.clip, sinkScore, KarstOptions{MinDist: k.MinDist, MaxDist: k.MaxDist})
	if err != nil {
		return err
	}
	p.put("karstDistance", res.Distance)
	p.put("karstScore", res.Score)
	return nil
}

func (p *Pipeline) impact(_ context.Context) error {
	position, err := PositionScore(p.layers["flowScore"], p.layers["karstScore"])
	if err != nil {
		return err
	}
	impact, err := ImpactScore(position, p.layers["soilSensScore"])
	if err != nil {
		return err
	}
	p.put("positionScore", position)
	p.put("impactScore", impact)
	return nil
}

// priorities weights the impact score by resource importance and splits it
// by land use. It runs only when importance layers or land-use masks are set.
func (p *Pipeline) priorities(ctx context.Context) error {
	pr := p.m.Priority
	layers := p.m.Importance.Layers
	if len(layers) == 0 && pr.ConsMask == "" && pr.RestMask == "" && pr.MgmtMask == "" {
		return nil
	}

	importance := grid.Constant(1)
	if len(layers) > 0 {
		weighted := make([]WeightedLayer, 0, len(layers))
		for _, l := range layers {
			features, err := p.features(ctx, p.m.Path(l.Path))
			if err != nil {
				return &schema.MissingSourceError{Unit: l.Path, Err: err}
			}
			polys, _ := vector.Polygons(features)
			weighted = append(weighted, WeightedLayer{Name: filepath.Base(l.Path), Features: polys, Weight: l.Weight})
		}
		imp, err := ImportanceScore(weighted, p.pc)
		if err != nil {
			return err
		}
		p.put("importanceScore", imp)
		importance = grid.FromGrid(imp)
	}

	var masks PriorityMasks
	var err error
	for _, m := range []struct {
		path string
		dst  **grid.Grid
	}{
		{pr.ConsMask, &masks.Cons},
		{pr.RestMask, &masks.Rest},
		{pr.MgmtMask, &masks.Mgmt},
	} {
		if *m.dst, err = p.optionalGrid(m.path); err != nil {
			return err
		}
	}

	res, err := PriorityScores(p.layers["impactScore"], importance, masks, PriorityOptions{
		Rescale: schema.RescaleMode(pr.Rescale),
		Slices:  pr.Slices,
	})
	if err != nil {
		return err
	}
	for _, l := range res.Layers(pr.NameTag) {
		p.put(l.Name, l.Grid)
		p.priority = append(p.priority, l.Name)
	}
	return nil
}
