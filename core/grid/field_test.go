package grid

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyField(t *testing.T) {
	loaded := Filled(testGeom(2, 2), 7)
	open := func(path string) (*Grid, error) {
		if path == "rfactor.asc" {
			return loaded, nil
		}
		return nil, errors.New("not found")
	}

	tests := []struct {
		name     string
		value    any
		kind     FieldKind
		constant float64
		wantErr  bool
	}{
		{"float", 0.7, ConstantField, 0.7, false},
		{"int", 31, ConstantField, 31, false},
		{"numeric string", " 2.5 ", ConstantField, 2.5, false},
		{"path", "rfactor.asc", GridField, 0, false},
		{"grid", loaded, GridField, 0, false},
		{"field passthrough", Constant(3), ConstantField, 3, false},
		{"missing path", "nope.asc", 0, 0, true},
		{"empty string", "", 0, 0, true},
		{"unsupported", []int{1}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ClassifyField(tt.value, open)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, f.Kind())
			if tt.kind == ConstantField {
				assert.Equal(t, tt.constant, f.Constant())
			} else {
				assert.Same(t, loaded, f.Grid())
			}
		})
	}
}

func TestClassifyFieldWithoutOpener(t *testing.T) {
	_, err := ClassifyField("landcover.asc", nil)
	var cfgErr *schema.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestClassifyFieldRejectsNonFinite(t *testing.T) {
	open := func(path string) (*Grid, error) {
		t.Fatalf("unexpected grid load of %q", path)
		return nil, nil
	}
	for _, v := range []any{"nan", "NaN", "inf", "-Infinity", math.NaN(), math.Inf(1), float32(math.Inf(-1))} {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			_, err := ClassifyField(v, open)
			var cfgErr *schema.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "constant must be finite", cfgErr.Reason)
		})
	}
}

func TestFieldAtAndAlignment(t *testing.T) {
	g := Wrap(testGeom(1, 2), []float64{4, 5})
	f := FromGrid(g)
	assert.Equal(t, 5.0, f.At(1))
	assert.Equal(t, 0.7, Constant(0.7).At(1))

	assert.NoError(t, f.CheckAligned("op", testGeom(1, 2)))
	assert.Error(t, f.CheckAligned("op", testGeom(2, 2)))
	assert.NoError(t, Constant(1).CheckAligned("op", testGeom(2, 2)))

	assert.True(t, Constant(1).IsConstant(1))
	assert.False(t, f.IsConstant(4))
	assert.Equal(t, "grid", f.Kind().String())
}
