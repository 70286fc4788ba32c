package rasterio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/klauspost/compress/zstd"
)

// wgzMagic opens every compressed grid stream.
var wgzMagic = [4]byte{'W', 'G', 'Z', '1'}

// wgzHeader is the fixed part of the compressed grid header. The CRS string
// follows it.
type wgzHeader struct {
	Magic    [4]byte
	Rows     int32
	Cols     int32
	CellSize float64
	XMin     float64
	YMax     float64
	NoData   float64
	Integer  uint8
	CRSLen   uint16
}

// ErrBadMagic is returned when a stream is not a compressed grid.
var ErrBadMagic = errors.New("not a wgz grid stream")

// EncodeGrid writes g as a zstd stream holding the header followed by
// little-endian float64 cells. Null cells are stored as NaN.
func EncodeGrid(w io.Writer, g *grid.Grid) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if err := writeCells(enc, g); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}
	return nil
}

func writeCells(w io.Writer, g *grid.Grid) error {
	geom := g.Geometry()
	if len(geom.CRS) > math.MaxUint16 {
		return fmt.Errorf("crs too long: %d bytes", len(geom.CRS))
	}
	h := wgzHeader{
		Magic:    wgzMagic,
		Rows:     int32(geom.Rows),
		Cols:     int32(geom.Cols),
		CellSize: geom.CellSize,
		XMin:     geom.XMin,
		YMax:     geom.YMax,
		NoData:   g.NoData(),
		CRSLen:   uint16(len(geom.CRS)),
	}
	if g.Integer() {
		h.Integer = 1
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return err
	}
	if _, err := bw.WriteString(geom.CRS); err != nil {
		return err
	}
	var cell [8]byte
	for i := range g.Len() {
		binary.LittleEndian.PutUint64(cell[:], math.Float64bits(g.At(i)))
		if _, err := bw.Write(cell[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeGrid reads a grid written by EncodeGrid.
func DecodeGrid(r io.Reader) (*grid.Grid, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	var h wgzHeader
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if h.Magic != wgzMagic {
		return nil, ErrBadMagic
	}
	crs := make([]byte, h.CRSLen)
	if _, err := io.ReadFull(br, crs); err != nil {
		return nil, fmt.Errorf("read crs: %w", err)
	}
	geom := grid.Geometry{
		Rows:     int(h.Rows),
		Cols:     int(h.Cols),
		CellSize: h.CellSize,
		XMin:     h.XMin,
		YMax:     h.YMax,
		CRS:      string(crs),
	}
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	values := make([]float64, geom.Len())
	var cell [8]byte
	for i := range values {
		if _, err := io.ReadFull(br, cell[:]); err != nil {
			return nil, fmt.Errorf("read cell %d: %w", i, err)
		}
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(cell[:]))
	}
	g := grid.Wrap(geom, values)
	if h.Integer == 1 {
		g = g.Integerize()
	}
	return g.WithNoData(h.NoData), nil
}

// Marshal returns the compressed encoding of g.
func Marshal(g *grid.Grid) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeGrid(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a compressed grid.
func Unmarshal(b []byte) (*grid.Grid, error) {
	return DecodeGrid(bytes.NewReader(b))
}
