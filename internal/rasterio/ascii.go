package rasterio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
)

// asciiHeader holds the keys of an ESRI ASCII grid header.
type asciiHeader struct {
	cols, rows int
	x, y       float64
	center     bool
	cellSize   float64
	noData     float64
}

// ReadASCII parses an ESRI ASCII grid. Cells equal to the NODATA_value
// become null.
func ReadASCII(r io.Reader, crs string) (*grid.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)

	h := asciiHeader{noData: grid.NoData}
	var first string
	seen := 0
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = key
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("header key %s has no value", key)
		}
		val := sc.Text()
		if err := h.set(key, val); err != nil {
			return nil, err
		}
		seen++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if h.cols <= 0 || h.rows <= 0 || h.cellSize <= 0 {
		return nil, fmt.Errorf("incomplete header: ncols=%d nrows=%d cellsize=%g", h.cols, h.rows, h.cellSize)
	}

	geom := grid.Geometry{Rows: h.rows, Cols: h.cols, CellSize: h.cellSize, XMin: h.x, CRS: crs}
	yMin := h.y
	if h.center {
		geom.XMin -= h.cellSize / 2
		yMin -= h.cellSize / 2
	}
	geom.YMax = yMin + float64(h.rows)*h.cellSize

	values := make([]float64, 0, geom.Len())
	integer := true
	push := func(tok string) error {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("cell %d: %w", len(values), err)
		}
		if v != math.Trunc(v) {
			integer = false
		}
		values = append(values, v)
		return nil
	}
	if first != "" {
		if err := push(first); err != nil {
			return nil, err
		}
	}
	for len(values) < geom.Len() && sc.Scan() {
		if err := push(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	g, err := grid.FromValues(geom, values, h.noData)
	if err != nil {
		return nil, err
	}
	if integer {
		g = g.Integerize().WithNoData(h.noData)
	}
	return g, nil
}

func (h *asciiHeader) set(key, val string) error {
	var err error
	switch key {
	case "ncols":
		h.cols, err = strconv.Atoi(val)
	case "nrows":
		h.rows, err = strconv.Atoi(val)
	case "xllcorner":
		h.x, err = strconv.ParseFloat(val, 64)
	case "xllcenter":
		h.x, err = strconv.ParseFloat(val, 64)
		h.center = true
	case "yllcorner":
		h.y, err = strconv.ParseFloat(val, 64)
	case "yllcenter":
		h.y, err = strconv.ParseFloat(val, 64)
		h.center = true
	case "cellsize":
		h.cellSize, err = strconv.ParseFloat(val, 64)
	case "nodata_value":
		h.noData, err = strconv.ParseFloat(val, 64)
	default:
		return fmt.Errorf("unknown header key %q", key)
	}
	if err != nil {
		return fmt.Errorf("header %s: %w", key, err)
	}
	return nil
}

// WriteASCII writes g as an ESRI ASCII grid. Integer grids are written
// without decimals; other grids use the given number of decimals.
func WriteASCII(w io.Writer, g *grid.Grid, precision int) error {
	geom := g.Geometry()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\n", geom.Cols, geom.Rows)
	fmt.Fprintf(bw, "xllcorner %s\nyllcorner %s\n", fmtCoord(geom.XMin), fmtCoord(geom.YMin()))
	fmt.Fprintf(bw, "cellsize %s\nNODATA_value %s\n", fmtCoord(geom.CellSize), fmtCoord(g.NoData()))

	prec := precision
	if g.Integer() {
		prec = 0
	}
	buf := make([]byte, 0, 32)
	for row := range geom.Rows {
		for col := range geom.Cols {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := g.AtRC(row, col)
			if grid.IsNull(v) {
				v = g.NoData()
			}
			buf = strconv.AppendFloat(buf[:0], v, 'f', prec, 64)
			bw.Write(buf)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
