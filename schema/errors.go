package schema

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an unrecognized or out-of-range option.
// It is raised before any computation starts.
type ConfigurationError struct {
	Field   string
	Value   string
	Allowed []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	switch {
	case len(e.Allowed) > 0:
		return fmt.Sprintf("invalid %s '%s'. must be %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
	case e.Reason != "":
		return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Value, e.Reason)
	default:
		return fmt.Sprintf("invalid %s '%s'", e.Field, e.Value)
	}
}

// InputAlignmentError reports grids whose geometry differs within one operation.
type InputAlignmentError struct {
	Operation string
	Detail    string
}

func (e *InputAlignmentError) Error() string {
	return fmt.Sprintf("%s: inputs are not aligned: %s", e.Operation, e.Detail)
}

// InsufficientDataError reports a reduction over an empty selection or a
// degenerate normalization.
type InsufficientDataError struct {
	Operation string
	Detail    string
}

func (e *InsufficientDataError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: no data cells selected", e.Operation)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Detail)
}

// MissingSourceError reports a processing unit whose inputs could not be read.
// Per-unit folds log it and continue with the remaining units.
type MissingSourceError struct {
	Unit string
	Err  error
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("unit %s: missing source: %v", e.Unit, e.Err)
}

func (e *MissingSourceError) Unwrap() error {
	return e.Err
}
