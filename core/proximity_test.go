package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/spatial"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/vector"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowContext(t *testing.T, n int, mask *grid.Grid) grid.ProcessingContext {
	t.Helper()
	pc, err := grid.NewProcessingContext(rowGeometry(n), mask)
	require.NoError(t, err)
	return pc
}

func TestFlowScore(t *testing.T) {
	flow := rowGrid(0, 50, 275, 500, 1000, nan)

	t.Run("distance rescale", func(t *testing.T) {
		got, err := FlowScore(flow, nil, DefaultFlowOptions())
		require.NoError(t, err)
		assertCells(t, []float64{100, 100, 50.5, 1, 1, nan}, got, 1e-9)
	})

	t.Run("headwater discount", func(t *testing.T) {
		hw := rowGrid(1, 0, nan, 0, 1, 1)
		got, err := FlowScore(flow, hw, DefaultFlowOptions())
		require.NoError(t, err)
		assertCells(t, []float64{100, 90, nan, 0.9, 1, nan}, got, 1e-9)
	})

	t.Run("misaligned", func(t *testing.T) {
		_, err := FlowScore(flow, rowGrid(1), DefaultFlowOptions())
		var alignErr *schema.InputAlignmentError
		assert.True(t, errors.As(err, &alignErr))
	})
}

func TestHeadwaterIndicator(t *testing.T) {
	catchments := []spatial.Feature{
		{Geom: rect(0, 0, 20, 10), Attrs: map[string]string{"FEATUREID": "101"}},
		{Geom: rect(20, 0, 40, 10), Attrs: map[string]string{"FEATUREID": "102.0"}},
	}
	flags := map[string]float64{"101": 1, "102": 0}

	t.Run("all catchments", func(t *testing.T) {
		got, err := HeadwaterIndicator(catchments, flags, "featureid", nil, rowContext(t, 4, rowGrid(1, 1, 1, 0)))
		require.NoError(t, err)
		assertCells(t, []float64{1, 1, 0, nan}, got, 0)
	})

	t.Run("boundary selection", func(t *testing.T) {
		boundary := []spatial.Feature{{Geom: rect(0, 0, 15, 10)}}
		got, err := HeadwaterIndicator(catchments, flags, "FEATUREID", boundary, rowContext(t, 4, nil))
		require.NoError(t, err)
		assertCells(t, []float64{1, 1, nan, nan}, got, 0)
	})

	t.Run("boundary touching an edge selects the catchment", func(t *testing.T) {
		boundary := []spatial.Feature{{Geom: rect(40, 0, 50, 10)}}
		got, err := HeadwaterIndicator(catchments, flags, "FEATUREID", boundary, rowContext(t, 4, nil))
		require.NoError(t, err)
		assertCells(t, []float64{nan, nan, 0, 0}, got, 0)
	})

	t.Run("boundary touching a corner selects the catchment", func(t *testing.T) {
		boundary := []spatial.Feature{{Geom: rect(-10, 10, 0, 20)}}
		got, err := HeadwaterIndicator(catchments, flags, "FEATUREID", boundary, rowContext(t, 4, nil))
		require.NoError(t, err)
		assertCells(t, []float64{1, 1, nan, nan}, got, 0)
	})

	t.Run("unmatched id", func(t *testing.T) {
		got, err := HeadwaterIndicator(catchments[:1], map[string]float64{}, "FEATUREID", nil, rowContext(t, 4, nil))
		require.NoError(t, err)
		assertCells(t, []float64{0, 0, nan, nan}, got, 0)
	})

	t.Run("ids join like the start flag table", func(t *testing.T) {
		table, err := vector.DecodeAttributeTable(strings.NewReader("FEATUREID,StartFlag\n101.0,1\n 102 ,1\n"), "FEATUREID", "StartFlag")
		require.NoError(t, err)
		got, err := HeadwaterIndicator(catchments, table, "FEATUREID", nil, rowContext(t, 4, nil))
		require.NoError(t, err)
		assertCells(t, []float64{1, 1, 1, 1}, got, 0)
	})

	t.Run("boundary misses every catchment", func(t *testing.T) {
		boundary := []spatial.Feature{{Geom: rect(100, 100, 110, 110)}}
		_, err := HeadwaterIndicator(catchments, flags, "FEATUREID", boundary, rowContext(t, 4, nil))
		var insufficient *schema.InsufficientDataError
		assert.True(t, errors.As(err, &insufficient))
	})
}

func TestSinkholeDensityRejectsRadius(t *testing.T) {
	opts := DefaultKernelOptions()
	opts.SearchRadius = 0
	_, err := SinkholeDensity(nil, "", rowContext(t, 4, nil), opts)
	var cfgErr *schema.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSinkholeScore(t *testing.T) {
	density := rowGrid(0, 2, 4, nan)

	got, err := SinkholeScore(density, nil)
	require.NoError(t, err)
	assertCells(t, []float64{1, 50.5, 100, nan}, got, 1e-9)

	got, err = SinkholeScore(density, rowGrid(0, 1, 1, 1))
	require.NoError(t, err)
	assertCells(t, []float64{nan, 50.5, 100, nan}, got, 1e-9)

	// Sparse densities below 1 keep their gradient.
	got, err = SinkholeScore(rowGrid(0, 0.1, 0.3, 0.6, 0.9), nil)
	require.NoError(t, err)
	assertCells(t, []float64{1, 12, 34, 67, 100}, got, 1e-9)

	_, err = SinkholeScore(rowGrid(0, 0, 0), nil)
	var insufficient *schema.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

func TestKarstScoreFromDistance(t *testing.T) {
	dist := rowGrid(0, 100, 2550, 5000, 6000)

	t.Run("distance only", func(t *testing.T) {
		res, err := KarstScoreFromDistance(dist, rowContext(t, 5, nil), nil, nil, DefaultKarstOptions())
		require.NoError(t, err)
		assertCells(t, []float64{100, 100, 50.5, 1, 1}, res.Score, 1e-9)
		assert.Same(t, res.DistScore, res.Score)
	})

	t.Run("mean with density score", func(t *testing.T) {
		density := rowGrid(50, nan, 50.5, 99, nan)
		res, err := KarstScoreFromDistance(dist, rowContext(t, 5, nil), nil, density, DefaultKarstOptions())
		require.NoError(t, err)
		assertCells(t, []float64{75, 100, 50.5, 50, 1}, res.Score, 1e-9)
	})

	t.Run("clip and mask", func(t *testing.T) {
		pc := rowContext(t, 5, rowGrid(1, 1, 1, 1, 0))
		res, err := KarstScoreFromDistance(dist, pc, rowGrid(0, 1, 1, 1, 1), nil, DefaultKarstOptions())
		require.NoError(t, err)
		assertCells(t, []float64{nan, 100, 50.5, 1, nan}, res.Score, 1e-9)
		assert.True(t, grid.IsNull(res.Distance.At(4)))
	})
}

func TestKarstScore(t *testing.T) {
	karst := []spatial.Feature{{Geom: rect(0, 0, 10, 10)}}
	res, err := KarstScore(karst, rowContext(t, 4, nil), nil, nil, KarstOptions{MinDist: 0, MaxDist: 30})
	require.NoError(t, err)
	assertCells(t, []float64{0, 10, 20, 30}, res.Distance, 1e-9)
	assertCells(t, []float64{100, 67, 34, 1}, res.Score, 1e-9)

	_, err = KarstScore(nil, rowContext(t, 4, nil), nil, nil, DefaultKarstOptions())
	var insufficient *schema.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

func TestPositionAndImpactScores(t *testing.T) {
	flow := rowGrid(100, 20, nan, nan)
	karst := rowGrid(40, 60, 10, nan)

	pos, err := PositionScore(flow, karst)
	require.NoError(t, err)
	assertCells(t, []float64{100, 60, 10, nan}, pos, 0)

	pos, err = PositionScore(flow, nil)
	require.NoError(t, err)
	assertCells(t, []float64{100, 20, nan, nan}, pos, 0)

	impact, err := ImpactScore(rowGrid(100, 60, 10, nan), rowGrid(50, nan, 30, nan))
	require.NoError(t, err)
	assertCells(t, []float64{75, 60, 20, nan}, impact, 1e-12)
}
