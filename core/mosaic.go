package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// UnitSource produces the grid for one processing unit, such as a soil
// survey area or a hydrologic basin.
type UnitSource func(ctx context.Context, unit string) (*grid.Grid, error)

// UnitResult is the outcome of processing one unit.
type UnitResult struct {
	Unit string
	Grid *grid.Grid
	Err  error
}

// MosaicResult is the merged grid of the units that succeeded.
type MosaicResult struct {
	Grid      *grid.Grid
	Succeeded int
	Failures  []schema.UnitFailure
}

// ProcessUnits runs load for every unit on a pool of workers. Results keep
// the order of units.
func ProcessUnits(ctx context.Context, units []string, workers int, load UnitSource) []UnitResult {
	type job struct {
		idx  int
		unit string
	}
	jobCh := make(chan job, len(units))
	results := make([]UnitResult, len(units))
	var wg sync.WaitGroup

	for range max(1, workers) {
		wg.Go(func() {
			for j := range jobCh {
				// Each worker writes only its own index.
				if err := ctx.Err(); err != nil {
					results[j.idx] = UnitResult{Unit: j.unit, Err: err}
					continue
				}
				g, err := load(ctx, j.unit)
				results[j.idx] = UnitResult{Unit: j.unit, Grid: g, Err: err}
			}
		})
	}

	for i, u := range units {
		jobCh <- job{idx: i, unit: u}
	}
	close(jobCh)
	wg.Wait()

	return results
}

// MosaicUnits processes every unit and merges the successes with a per-cell
// maximum. A unit that fails is logged and recorded as a MissingSourceError
// without aborting the rest. The mosaic fails only when no unit succeeds or
// ctx is cancelled.
func MosaicUnits(ctx context.Context, stage string, geo grid.Geometry, units []string, workers int, load UnitSource, logger *slog.Logger) (MosaicResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res MosaicResult
	var grids []*grid.Grid
	for _, r := range ProcessUnits(ctx, units, workers, load) {
		err := r.Err
		if err == nil && r.Grid == nil {
			err = errors.New("no grid produced")
		}
		if err == nil {
			if d := geo.Diff(r.Grid.Geometry()); d != "" {
				err = &schema.InputAlignmentError{Operation: stage, Detail: d}
			}
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return MosaicResult{}, ctxErr
			}
			var missing *schema.MissingSourceError
			if !errors.As(err, &missing) {
				err = &schema.MissingSourceError{Unit: r.Unit, Err: err}
			}
			logger.Warn("unit skipped", "stage", stage, "unit", r.Unit, "error", err)
			res.Failures = append(res.Failures, schema.UnitFailure{Stage: stage, Unit: r.Unit, Reason: err.Error()})
			continue
		}
		grids = append(grids, r.Grid)
	}
	if len(grids) == 0 {
		return res, &schema.InsufficientDataError{Operation: stage, Detail: fmt.Sprintf("all %d units failed", len(units))}
	}
	merged, err := grid.CellMax(stage, grids...)
	if err != nil {
		return res, err
	}
	res.Grid = merged
	res.Succeeded = len(grids)
	return res, nil
}
