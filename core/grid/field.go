package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// FieldKind distinguishes the two shapes a Field can take.
type FieldKind int

// Field kinds.
const (
	ConstantField FieldKind = iota
	GridField
)

func (k FieldKind) String() string {
	if k == GridField {
		return "grid"
	}
	return "constant"
}

// Field is either a constant or a grid. Operations accept a Field wherever a
// parameter may be given as a single number or per cell.
type Field struct {
	kind     FieldKind
	constant float64
	grid     *Grid
}

// Constant returns a constant field.
func Constant(v float64) Field { return Field{kind: ConstantField, constant: v} }

// FromGrid returns a grid-backed field.
func FromGrid(g *Grid) Field { return Field{kind: GridField, grid: g} }

// Kind returns the field shape.
func (f Field) Kind() FieldKind { return f.kind }

// Constant returns the constant value. It is only meaningful for constant fields.
func (f Field) Constant() float64 { return f.constant }

// Grid returns the backing grid, or nil for constant fields.
func (f Field) Grid() *Grid { return f.grid }

// At returns the field value at cell i.
func (f Field) At(i int) float64 {
	if f.kind == GridField {
		return f.grid.At(i)
	}
	return f.constant
}

// IsConstant reports whether the field is everywhere equal to v, either as a
// constant or as a grid whose data cells all hold v.
func (f Field) IsConstant(v float64) bool {
	if f.kind == ConstantField {
		return f.constant == v
	}
	return f.grid.IsConstant(v)
}

// CheckAligned verifies a grid-backed field against a geometry.
func (f Field) CheckAligned(op string, geom Geometry) error {
	if f.kind != GridField {
		return nil
	}
	if d := geom.Diff(f.grid.Geometry()); d != "" {
		return &schema.InputAlignmentError{Operation: op, Detail: d}
	}
	return nil
}

// Opener loads a grid from a path.
type Opener func(path string) (*Grid, error)

// ClassifyField converts a loosely typed parameter into a Field. Numbers and
// numeric strings become constants; other strings are treated as grid paths
// and loaded with open.
func ClassifyField(value any, open Opener) (Field, error) {
	switch v := value.(type) {
	case Field:
		return v, nil
	case *Grid:
		if v == nil {
			return Field{}, &schema.ConfigurationError{Field: "field", Value: "<nil>", Reason: "grid is nil"}
		}
		return FromGrid(v), nil
	case float64:
		return finiteConstant(v)
	case float32:
		return finiteConstant(float64(v))
	case int:
		return Constant(float64(v)), nil
	case int64:
		return Constant(float64(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Field{}, &schema.ConfigurationError{Field: "field", Value: v, Reason: "empty value"}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return finiteConstant(f)
		}
		if open == nil {
			return Field{}, &schema.ConfigurationError{Field: "field", Value: v, Reason: "no grid reader available"}
		}
		g, err := open(s)
		if err != nil {
			return Field{}, fmt.Errorf("load field %s: %w", s, err)
		}
		return FromGrid(g), nil
	default:
		return Field{}, &schema.ConfigurationError{Field: "field", Value: fmt.Sprintf("%v", value), Reason: fmt.Sprintf("unsupported type %T", value)}
	}
}

// finiteConstant rejects NaN and infinities, which would read as null or
// overflow in every cell.
func finiteConstant(v float64) (Field, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Field{}, &schema.ConfigurationError{Field: "field", Value: strconv.FormatFloat(v, 'g', -1, 64), Reason: "constant must be finite"}
	}
	return Constant(v), nil
}
