package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlopeInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected SlopeInput
		wantErr  bool
	}{
		{"short degrees", "DEG", SlopeDegrees, false},
		{"long degrees lower case", "degrees", SlopeDegrees, false},
		{"short percent", "PERC", SlopePercent, false},
		{"long percent padded", "  PERCENT ", SlopePercent, false},
		{"short elevation", "ELEV", SlopeElevation, false},
		{"long elevation", "ELEVATION", SlopeElevation, false},
		{"radians rejected", "RAD", "", true},
		{"empty rejected", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlopeInput(tt.input)
			if tt.wantErr {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "slope input type", cfgErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseEnums(t *testing.T) {
	st, err := ParseSlopeTransform("rusle")
	require.NoError(t, err)
	assert.Equal(t, RUSLE, st)

	_, err = ParseSlopeTransform("LOG")
	assert.ErrorContains(t, err, "must be TRUNCLIN, TRUNCSIN, RUSLE")

	ri, err := ParseRunoffInput("ret")
	require.NoError(t, err)
	assert.Equal(t, RetentionInput, ri)

	_, err = ParseRunoffInput("Q")
	assert.Error(t, err)

	rm, err := ParseRescaleMode("standard")
	require.NoError(t, err)
	assert.Equal(t, StandardRescale, rm)

	_, err = ParseRescaleMode("QUANTILE")
	assert.Error(t, err)

	p, err := ParsePerspective("cons")
	require.NoError(t, err)
	assert.Equal(t, ConservationView, p)

	_, err = ParsePerspective("BOTH")
	assert.Error(t, err)
}

func TestMissingSourceErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("mosaic: %w", &MissingSourceError{Unit: "0208", Err: fs.ErrNotExist})

	var missing *MissingSourceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "0208", missing.Unit)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "unit 0208")
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"alignment", &InputAlignmentError{Operation: "SoilLoss", Detail: "cell size 10 vs 30"}, "SoilLoss: inputs are not aligned: cell size 10 vs 30"},
		{"insufficient default", &InsufficientDataError{Operation: "TruncatedBounds"}, "TruncatedBounds: no data cells selected"},
		{"insufficient detail", &InsufficientDataError{Operation: "ImportanceScore", Detail: "maximum weighted sum is 0"}, "ImportanceScore: maximum weighted sum is 0"},
		{"config reason", &ConfigurationError{Field: "slices", Value: "0", Reason: "must be positive"}, "invalid slices '0': must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestEnrichLayers(t *testing.T) {
	layers := []LayerSummary{
		{Name: "impactScore", Mean: 85},
		{Name: "flowScore", Mean: 41},
		{Name: "karstScore", Mean: 12},
	}

	enriched := EnrichLayers(layers)
	require.Len(t, enriched, 3)
	assert.Equal(t, 1, enriched[0].Rank)
	assert.Equal(t, "Critical", enriched[0].Label)
	assert.Equal(t, "Moderate", enriched[1].Label)
	assert.Equal(t, "Low", enriched[2].Label)
	assert.Equal(t, "karstScore", enriched[2].Name)
}
