package spatial

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// EuclideanDistance returns the exact straight-line distance in map units
// from every cell to the nearest non-null cell of src. It uses the
// Felzenszwalb-Huttenlocher separable transform on squared distances.
func EuclideanDistance(op string, src *grid.Grid) (*grid.Grid, error) {
	geo := src.Geometry()
	if src.DataCount() == 0 {
		return nil, &schema.InsufficientDataError{Operation: op, Detail: "no source cells"}
	}
	rows, cols := geo.Rows, geo.Cols
	inf := math.Inf(1)
	d := make([]float64, geo.Len())
	for i := range d {
		if grid.IsNull(src.At(i)) {
			d[i] = inf
		}
	}

	n := max(rows, cols)
	f := make([]float64, n)
	out := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	for c := range cols {
		for r := range rows {
			f[r] = d[geo.Index(r, c)]
		}
		transform1D(f[:rows], out[:rows], v, z)
		for r := range rows {
			d[geo.Index(r, c)] = out[r]
		}
	}
	for r := range rows {
		copy(f[:cols], d[r*cols:(r+1)*cols])
		transform1D(f[:cols], out[:cols], v, z)
		for c := range cols {
			d[geo.Index(r, c)] = math.Sqrt(out[c]) * geo.CellSize
		}
	}
	return grid.Wrap(geo, d), nil
}

// transform1D computes the lower envelope of parabolas rooted at f.
func transform1D(f, out []float64, v []int, z []float64) {
	n := len(f)
	k := -1
	for q := range n {
		if math.IsInf(f[q], 1) {
			continue
		}
		for k >= 0 {
			s := ((f[q] + float64(q*q)) - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
			if s > z[k] {
				break
			}
			k--
		}
		k++
		v[k] = q
		if k == 0 {
			z[k] = math.Inf(-1)
		} else {
			z[k] = ((f[q] + float64(q*q)) - (f[v[k-1]] + float64(v[k-1]*v[k-1]))) / float64(2*q-2*v[k-1])
		}
		z[k+1] = math.Inf(1)
	}
	if k < 0 {
		for q := range n {
			out[q] = math.Inf(1)
		}
		return
	}
	j := 0
	for q := range n {
		for z[j+1] < float64(q) {
			j++
		}
		dq := float64(q - v[j])
		out[q] = dq*dq + f[v[j]]
	}
}
