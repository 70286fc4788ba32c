package grid

import (
	"math"
	"runtime"
	"sync"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// minParallelCells is the grid size below which kernels run on one goroutine.
const minParallelCells = 1 << 14

// parallelFor splits [0, n) into contiguous chunks, one per available CPU.
// Each chunk writes only its own cells so no locking is needed.
func parallelFor(n int, fn func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if n < minParallelCells || workers <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Go(func() {
			fn(lo, hi)
		})
	}
	wg.Wait()
}

// CheckAligned returns an InputAlignmentError when any two non-nil grids
// differ in geometry.
func CheckAligned(op string, grids ...*Grid) error {
	var ref *Grid
	for _, g := range grids {
		if g == nil {
			continue
		}
		if ref == nil {
			ref = g
			continue
		}
		if d := ref.geom.Diff(g.geom); d != "" {
			return &schema.InputAlignmentError{Operation: op, Detail: d}
		}
	}
	return nil
}

// Map applies fn to every non-null cell. Null cells stay null.
func Map(src *Grid, fn func(v float64) float64) *Grid {
	return Build(src.geom, func(i int) float64 {
		v := src.values[i]
		if math.IsNaN(v) {
			return v
		}
		return fn(v)
	})
}

// Zip combines two aligned grids cell by cell. A null in either input yields null.
func Zip(op string, a, b *Grid, fn func(x, y float64) float64) (*Grid, error) {
	if err := CheckAligned(op, a, b); err != nil {
		return nil, err
	}
	return Build(a.geom, func(i int) float64 {
		x, y := a.values[i], b.values[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.NaN()
		}
		return fn(x, y)
	}), nil
}

// reduceData folds the non-null values of each cell across grids. A cell is
// null only when every input is null there. Nil grids are skipped.
func reduceData(op string, in []*Grid, fold func(vals []float64) float64) (*Grid, error) {
	grids := make([]*Grid, 0, len(in))
	for _, g := range in {
		if g != nil {
			grids = append(grids, g)
		}
	}
	if len(grids) == 0 {
		return nil, &schema.InsufficientDataError{Operation: op, Detail: "no input grids"}
	}
	if err := CheckAligned(op, grids...); err != nil {
		return nil, err
	}
	geom := grids[0].geom
	values := make([]float64, geom.Len())
	parallelFor(len(values), func(lo, hi int) {
		buf := make([]float64, 0, len(grids))
		for i := lo; i < hi; i++ {
			buf = buf[:0]
			for _, g := range grids {
				if v := g.values[i]; !math.IsNaN(v) {
					buf = append(buf, v)
				}
			}
			if len(buf) == 0 {
				values[i] = math.NaN()
				continue
			}
			values[i] = fold(buf)
		}
	})
	return Wrap(geom, values), nil
}

// CellMax returns the per-cell maximum, ignoring nulls where another input has data.
func CellMax(op string, grids ...*Grid) (*Grid, error) {
	return reduceData(op, grids, func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Max(m, v)
		}
		return m
	})
}

// CellMean returns the per-cell mean of the inputs that have data.
func CellMean(op string, grids ...*Grid) (*Grid, error) {
	return reduceData(op, grids, func(vals []float64) float64 {
		s := 0.0
		for _, v := range vals {
			s += v
		}
		return s / float64(len(vals))
	})
}

// CellSum returns the per-cell sum of the inputs that have data.
func CellSum(op string, grids ...*Grid) (*Grid, error) {
	return reduceData(op, grids, func(vals []float64) float64 {
		s := 0.0
		for _, v := range vals {
			s += v
		}
		return s
	})
}

// Selected reports whether cell i is selected by mask. A nil mask selects
// every cell; otherwise the mask cell must be non-null and non-zero.
func Selected(mask *Grid, i int) bool {
	if mask == nil {
		return true
	}
	v := mask.values[i]
	return !math.IsNaN(v) && v != 0
}

// Con keeps the cells of g selected by mask and nulls the rest.
func Con(op string, g, mask *Grid) (*Grid, error) {
	if mask == nil {
		return g, nil
	}
	if err := CheckAligned(op, g, mask); err != nil {
		return nil, err
	}
	out := Build(g.geom, func(i int) float64 {
		if Selected(mask, i) {
			return g.values[i]
		}
		return math.NaN()
	})
	out.integer = g.integer
	return out, nil
}

// Clamp limits every non-null cell to [lo, hi].
func Clamp(g *Grid, lo, hi float64) *Grid {
	return Map(g, func(v float64) float64 {
		return math.Min(hi, math.Max(lo, v))
	})
}
