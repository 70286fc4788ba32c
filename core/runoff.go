package core

import (
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

const (
	// DefaultCellArea is the cell area in square centimetres for 10 m cells.
	DefaultCellArea = 1_000_000.0
	// volumeConversion turns inch·cm² into litres.
	volumeConversion = 0.00254
	// maxRetention is the retention assigned where the curve number is 0.
	maxRetention = 1000.0
)

// RunoffOptions tunes EventRunoff.
type RunoffOptions struct {
	CellArea       float64
	RainConversion float64
	WantVolume     bool
}

// DefaultRunoffOptions returns depth-only options for 10 m cells and inches of rain.
func DefaultRunoffOptions() RunoffOptions {
	return RunoffOptions{CellArea: DefaultCellArea, RainConversion: 1}
}

// RunoffResult holds the event runoff outputs. Retention is nil when the
// input already was retention; Volume is nil unless requested.
type RunoffResult struct {
	Retention *grid.Grid
	Depth     *grid.Grid
	Volume    *grid.Grid
}

// Retention returns the maximum potential retention in inches for a curve number.
func Retention(cn float64) float64 {
	if cn == 0 {
		return maxRetention
	}
	return 1000/cn - 10
}

// RunoffDepth returns the SCS runoff depth in inches. No runoff occurs until
// rain exceeds the initial abstraction of 0.2·retention.
func RunoffDepth(rain, retention float64) float64 {
	ia := 0.2 * retention
	if rain-ia <= 0 {
		return 0
	}
	return (rain - ia) * (rain - ia) / (rain + 0.8*retention)
}

// EventRunoff computes runoff depth, and optionally volume, for a rain event
// from curve numbers or retention.
func EventRunoff(in *grid.Grid, mode schema.RunoffInput, rain grid.Field, opts RunoffOptions) (RunoffResult, error) {
	const op = "EventRunoff"
	mode, err := schema.ParseRunoffInput(string(mode))
	if err != nil {
		return RunoffResult{}, err
	}
	if err := rain.CheckAligned(op, in.Geometry()); err != nil {
		return RunoffResult{}, err
	}
	conv := opts.RainConversion
	if !(conv > 0) {
		return RunoffResult{}, &schema.ConfigurationError{Field: "rain conversion", Value: formatFloat(conv), Reason: "must be positive"}
	}
	cellArea := opts.CellArea
	if cellArea == 0 {
		cellArea = DefaultCellArea
	}

	var res RunoffResult
	retention := in
	if mode == schema.CurveNumberInput {
		retention = grid.Map(in, Retention)
		res.Retention = retention
	}
	res.Depth = grid.Build(in.Geometry(), func(i int) float64 {
		v, p := in.At(i), rain.At(i)
		if math.IsNaN(v) || math.IsNaN(p) {
			return math.NaN()
		}
		if mode == schema.CurveNumberInput && v == 0 {
			return 0
		}
		return RunoffDepth(p*conv, retention.At(i))
	})
	if opts.WantVolume {
		res.Volume = grid.Map(res.Depth, func(d float64) float64 { return d * volumeConversion * cellArea })
	}
	return res, nil
}
