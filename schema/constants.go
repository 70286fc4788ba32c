package schema

import "strings"

// Custom string types for type safety.
type (
	// OutputMode represents the format of the summary output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// RasterFormat represents the on-disk encoding of grid products.
	RasterFormat string

	// SlopeInput identifies the units of the grid handed to the slope transform.
	SlopeInput string

	// SlopeTransform identifies the slope-to-factor mapping.
	SlopeTransform string

	// RunoffInput identifies whether the runoff grid holds curve numbers or retention.
	RunoffInput string

	// RescaleMode identifies how the general priority is mapped onto its final scale.
	RescaleMode string

	// Perspective identifies the scenario direction for ScenarioScore.
	Perspective string

	// LogFormat represents the handler used for structured logs.
	LogFormat string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All raster encodings supported.
const (
	ASCIIGrid      RasterFormat = "asc" // default
	CompressedGrid RasterFormat = "wgz"
)

// Slope input units.
const (
	SlopeDegrees   SlopeInput = "DEGREES"
	SlopePercent   SlopeInput = "PERCENT"
	SlopeElevation SlopeInput = "ELEVATION"
)

// Slope transforms.
const (
	TruncLinear SlopeTransform = "TRUNCLIN"
	TruncSine   SlopeTransform = "TRUNCSIN"
	RUSLE       SlopeTransform = "RUSLE"
)

// Runoff input kinds.
const (
	CurveNumberInput RunoffInput = "CN"
	RetentionInput   RunoffInput = "RET"
)

// Priority rescale modes.
const (
	SliceRescale    RescaleMode = "SLICE" // default
	StandardRescale RescaleMode = "STANDARD"
	NoRescale       RescaleMode = "NONE"
)

// Scenario perspectives.
const (
	ConservationView Perspective = "CONS"
	RestorationView  Perspective = "REST"
)

// Log formats.
const (
	TextLog LogFormat = "text" // default
	JSONLog LogFormat = "json"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidRasterFormats lists all valid raster encodings.
var ValidRasterFormats = map[RasterFormat]struct{}{
	ASCIIGrid:      {},
	CompressedGrid: {},
}

// ValidLogFormats lists all valid log formats.
var ValidLogFormats = map[LogFormat]struct{}{
	TextLog: {},
	JSONLog: {},
}

// slopeInputAliases maps accepted spellings onto the canonical input kind.
var slopeInputAliases = map[string]SlopeInput{
	"DEG":       SlopeDegrees,
	"DEGREES":   SlopeDegrees,
	"PERC":      SlopePercent,
	"PERCENT":   SlopePercent,
	"ELEV":      SlopeElevation,
	"ELEVATION": SlopeElevation,
}

// ParseSlopeInput resolves a user-supplied slope unit.
func ParseSlopeInput(s string) (SlopeInput, error) {
	if v, ok := slopeInputAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	return "", &ConfigurationError{Field: "slope input type", Value: s, Allowed: []string{"DEG", "DEGREES", "PERC", "PERCENT", "ELEV", "ELEVATION"}}
}

// ParseSlopeTransform resolves a user-supplied slope transform.
func ParseSlopeTransform(s string) (SlopeTransform, error) {
	switch v := SlopeTransform(strings.ToUpper(strings.TrimSpace(s))); v {
	case TruncLinear, TruncSine, RUSLE:
		return v, nil
	}
	return "", &ConfigurationError{Field: "slope transform", Value: s, Allowed: []string{string(TruncLinear), string(TruncSine), string(RUSLE)}}
}

// ParseRunoffInput resolves a user-supplied runoff input kind.
func ParseRunoffInput(s string) (RunoffInput, error) {
	switch v := RunoffInput(strings.ToUpper(strings.TrimSpace(s))); v {
	case CurveNumberInput, RetentionInput:
		return v, nil
	}
	return "", &ConfigurationError{Field: "runoff input type", Value: s, Allowed: []string{string(CurveNumberInput), string(RetentionInput)}}
}

// ParseRescaleMode resolves a user-supplied priority rescale mode.
func ParseRescaleMode(s string) (RescaleMode, error) {
	switch v := RescaleMode(strings.ToUpper(strings.TrimSpace(s))); v {
	case SliceRescale, StandardRescale, NoRescale:
		return v, nil
	}
	return "", &ConfigurationError{Field: "rescale mode", Value: s, Allowed: []string{string(SliceRescale), string(StandardRescale), string(NoRescale)}}
}

// ParsePerspective resolves a user-supplied scenario perspective.
func ParsePerspective(s string) (Perspective, error) {
	switch v := Perspective(strings.ToUpper(strings.TrimSpace(s))); v {
	case ConservationView, RestorationView:
		return v, nil
	}
	return "", &ConfigurationError{Field: "perspective", Value: s, Allowed: []string{string(ConservationView), string(RestorationView)}}
}
