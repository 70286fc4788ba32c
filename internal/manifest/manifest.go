// Package manifest reads the TOML run manifest that names the inputs and
// parameters of a watershed impact run.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// Manifest is the full description of one run.
type Manifest struct {
	Name string `toml:"name"`

	Grid       GridSection       `toml:"grid"`
	Soils      SoilsSection      `toml:"soils"`
	Slope      SlopeSection      `toml:"slope"`
	SoilLoss   SoilLossSection   `toml:"soil_loss"`
	Runoff     RunoffSection     `toml:"runoff"`
	Flow       FlowSection       `toml:"flow"`
	Karst      KarstSection      `toml:"karst"`
	Importance ImportanceSection `toml:"importance"`
	Priority   PrioritySection   `toml:"priority"`
	Output     OutputSection     `toml:"output"`

	// dir is the manifest directory; relative paths resolve against it.
	dir string
}

// GridSection names the reference lattice and masks.
type GridSection struct {
	Reference       string `toml:"reference"`
	ClipMask        string `toml:"clip_mask"`
	SensitivityMask string `toml:"sensitivity_mask"`
	CRS             string `toml:"crs"`
}

// SoilsSection names the soil inputs: either per survey-area shapefiles or
// prepared hydrologic group and K-factor grids.
type SoilsSection struct {
	Units           []string `toml:"units"`
	HydroGroupField string   `toml:"hydro_group_field"`
	KFactorField    string   `toml:"kfactor_field"`
	HydroGroup      string   `toml:"hydro_group"`
	KFactor         string   `toml:"kfactor"`
}

// SlopeSection configures the slope transform.
type SlopeSection struct {
	Input     string  `toml:"input"`
	InputType string  `toml:"input_type"`
	Transform string  `toml:"transform"`
	ZFactor   float64 `toml:"zfactor"`
}

// SoilLossSection configures the RUSLE factors. RFactor and Cover accept a
// number or a grid path.
type SoilLossSection struct {
	RFactor any `toml:"rfactor"`
	Cover   any `toml:"cover"`
}

// RunoffSection configures the curve number runoff event.
type RunoffSection struct {
	LandCover      any     `toml:"land_cover"`
	Rain           any     `toml:"rain"`
	RainConversion float64 `toml:"rain_conversion"`
	CellArea       float64 `toml:"cell_area"`
	Volume         bool    `toml:"volume"`
}

// FlowSection configures the overland flow score.
type FlowSection struct {
	Units        []string `toml:"units"`
	MinDist      float64  `toml:"min_dist"`
	MaxDist      float64  `toml:"max_dist"`
	Discount     float64  `toml:"discount"`
	Catchments   string   `toml:"catchments"`
	StartFlags   string   `toml:"start_flags"`
	IDField      string   `toml:"id_field"`
	FlagField    string   `toml:"flag_field"`
	Boundary     string   `toml:"boundary"`
	SkipDiscount bool     `toml:"skip_discount"`
}

// KarstSection configures the sinkhole density and karst distance scores.
type KarstSection struct {
	Sinkholes     string  `toml:"sinkholes"`
	AreaField     string  `toml:"area_field"`
	SearchRadius  float64 `toml:"search_radius"`
	AreaScale     float64 `toml:"area_scale"`
	KarstPolygons string  `toml:"karst_polygons"`
	MinDist       float64 `toml:"min_dist"`
	MaxDist       float64 `toml:"max_dist"`
}

// DefaultImportanceWeight applies to importance layers that give no weight.
const DefaultImportanceWeight = 1.0

// ImportanceLayer is one weighted resource polygon layer.
type ImportanceLayer struct {
	Path   string  `toml:"path"`
	Weight float64 `toml:"weight"`
}

// UnmarshalTOML decodes a layer table. An absent weight takes
// DefaultImportanceWeight; an explicit 0 is kept.
func (l *ImportanceLayer) UnmarshalTOML(data any) error {
	tbl, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("importance layer must be a table, got %T", data)
	}
	*l = ImportanceLayer{Weight: DefaultImportanceWeight}
	if v, ok := tbl["path"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("importance layer path must be a string, got %T", v)
		}
		l.Path = s
	}
	if v, ok := tbl["weight"]; ok {
		switch n := v.(type) {
		case int64:
			l.Weight = float64(n)
		case float64:
			l.Weight = n
		default:
			return fmt.Errorf("importance layer weight must be a number, got %T", v)
		}
	}
	return nil
}

// ImportanceSection lists the resource layers of the importance score.
type ImportanceSection struct {
	Layers []ImportanceLayer `toml:"layers"`
}

// PrioritySection configures the land-use priorities.
type PrioritySection struct {
	ConsMask string `toml:"cons_mask"`
	RestMask string `toml:"rest_mask"`
	MgmtMask string `toml:"mgmt_mask"`
	Rescale  string `toml:"rescale"`
	Slices   int    `toml:"slices"`
	NameTag  string `toml:"name_tag"`
}

// OutputSection configures where products are written.
type OutputSection struct {
	Dir           string `toml:"dir"`
	Format        string `toml:"format"`
	Intermediates bool   `toml:"intermediates"`
}

// Default returns a manifest with every numeric parameter at its standard value.
func Default() Manifest {
	return Manifest{
		Name: "watershed-impact",
		Soils: SoilsSection{
			HydroGroupField: "HYDROLGRP_DCD",
			KFactorField:    "KFFACT",
		},
		Slope: SlopeSection{
			InputType: string(schema.SlopeElevation),
			Transform: string(schema.RUSLE),
			ZFactor:   0.01,
		},
		SoilLoss: SoilLossSection{Cover: 0.7},
		Runoff: RunoffSection{
			LandCover:      int64(31),
			RainConversion: 1,
		},
		Flow: FlowSection{
			MinDist:   50,
			MaxDist:   500,
			Discount:  0.9,
			IDField:   "NHDPlusID",
			FlagField: "StartFlag",
		},
		Karst: KarstSection{
			AreaField:    "Area",
			SearchRadius: 5000,
			AreaScale:    10000,
			MinDist:      100,
			MaxDist:      5000,
		},
		Priority: PrioritySection{
			Rescale: string(schema.SliceRescale),
			Slices:  10,
		},
		Output: OutputSection{Dir: "outputs"},
	}
}

// Load decodes the manifest at path over the defaults.
func Load(path string) (Manifest, error) {
	m := Default()
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return m, err
	}
	m.dir = filepath.Dir(abs)
	return m, nil
}

// Decode reads a manifest from r. Relative paths resolve against dir.
func Decode(r io.Reader, dir string) (Manifest, error) {
	m := Default()
	if _, err := toml.NewDecoder(r).Decode(&m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = dir
	return m, nil
}

// Dir returns the directory relative paths resolve against.
func (m Manifest) Dir() string { return m.dir }

// Path resolves a manifest path against the manifest directory.
func (m Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Inputs lists every input file the manifest names, resolved and in
// section order. Numeric parameters are skipped.
func (m Manifest) Inputs() []string {
	var out []string
	add := func(paths ...string) {
		for _, p := range paths {
			if p != "" {
				out = append(out, m.Path(p))
			}
		}
	}
	addField := func(v any) {
		if s, ok := v.(string); ok {
			add(s)
		}
	}

	add(m.Grid.Reference, m.Grid.ClipMask, m.Grid.SensitivityMask)
	add(m.Soils.Units...)
	add(m.Soils.HydroGroup, m.Soils.KFactor, m.Slope.Input)
	addField(m.SoilLoss.RFactor)
	addField(m.SoilLoss.Cover)
	addField(m.Runoff.LandCover)
	addField(m.Runoff.Rain)
	add(m.Flow.Units...)
	add(m.Flow.Catchments, m.Flow.StartFlags, m.Flow.Boundary)
	add(m.Karst.Sinkholes, m.Karst.KarstPolygons)
	for _, l := range m.Importance.Layers {
		add(l.Path)
	}
	add(m.Priority.ConsMask, m.Priority.RestMask, m.Priority.MgmtMask)
	return out
}

// Validate checks enumerations and required inputs and returns every
// problem found.
func (m Manifest) Validate() error {
	var errs []error
	require := func(field, value string) {
		if value == "" {
			errs = append(errs, &schema.ConfigurationError{Field: field, Value: value, Reason: "required"})
		}
	}
	positive := func(field string, v float64) {
		if !(v > 0) {
			errs = append(errs, &schema.ConfigurationError{Field: field, Value: fmt.Sprint(v), Reason: "must be positive"})
		}
	}

	require("grid.reference", m.Grid.Reference)
	require("slope.input", m.Slope.Input)
	if _, err := schema.ParseSlopeInput(m.Slope.InputType); err != nil {
		errs = append(errs, err)
	}
	if _, err := schema.ParseSlopeTransform(m.Slope.Transform); err != nil {
		errs = append(errs, err)
	}
	if m.SoilLoss.RFactor == nil {
		errs = append(errs, &schema.ConfigurationError{Field: "soil_loss.rfactor", Reason: "required"})
	}
	if m.Runoff.Rain == nil {
		errs = append(errs, &schema.ConfigurationError{Field: "runoff.rain", Reason: "required"})
	}
	if len(m.Soils.Units) == 0 && (m.Soils.HydroGroup == "" || m.Soils.KFactor == "") {
		errs = append(errs, &schema.ConfigurationError{Field: "soils", Reason: "give units or both hydro_group and kfactor grids"})
	}
	if len(m.Flow.Units) == 0 {
		errs = append(errs, &schema.ConfigurationError{Field: "flow.units", Reason: "at least one flow length grid is required"})
	}
	if (m.Flow.Catchments == "") != (m.Flow.StartFlags == "") {
		errs = append(errs, &schema.ConfigurationError{Field: "flow.catchments", Value: m.Flow.Catchments, Reason: "catchments and start_flags go together"})
	}
	positive("flow.max_dist", m.Flow.MaxDist-m.Flow.MinDist)
	positive("karst.search_radius", m.Karst.SearchRadius)
	positive("karst.max_dist", m.Karst.MaxDist-m.Karst.MinDist)
	if _, err := schema.ParseRescaleMode(m.Priority.Rescale); err != nil {
		errs = append(errs, err)
	}
	if m.Priority.Slices < 1 {
		errs = append(errs, &schema.ConfigurationError{Field: "priority.slices", Value: fmt.Sprint(m.Priority.Slices), Reason: "must be at least 1"})
	}
	for i, l := range m.Importance.Layers {
		require(fmt.Sprintf("importance.layers[%d].path", i), l.Path)
		if l.Weight < 0 || math.IsNaN(l.Weight) {
			errs = append(errs, &schema.ConfigurationError{Field: fmt.Sprintf("importance.layers[%d].weight", i), Value: fmt.Sprint(l.Weight), Reason: "must not be negative"})
		}
	}
	positive("runoff.rain_conversion", m.Runoff.RainConversion)
	if m.Output.Format != "" {
		if _, ok := schema.ValidRasterFormats[schema.RasterFormat(m.Output.Format)]; !ok {
			errs = append(errs, &schema.ConfigurationError{Field: "output.format", Value: m.Output.Format, Allowed: []string{"asc", "wgz"}})
		}
	}
	return errors.Join(errs...)
}

// Example returns a filled-in manifest used by `wim init`.
func Example() Manifest {
	m := Default()
	m.Grid = GridSection{
		Reference: "inputs/procMask.asc",
		ClipMask:  "inputs/clipMask.asc",
	}
	m.Soils.Units = []string{"soils/VA.shp", "soils/WV.shp"}
	m.Slope.Input = "inputs/elevation.asc"
	m.SoilLoss.RFactor = "inputs/rfactor.asc"
	m.Runoff.Rain = 3.1
	m.Flow.Units = []string{"flow/overlandFlowLength_0207.asc", "flow/overlandFlowLength_0208.asc"}
	m.Flow.Catchments = "nhd/catchments.shp"
	m.Flow.StartFlags = "nhd/flowline_startflags.csv"
	m.Karst.Sinkholes = "karst/sinkholes.shp"
	m.Karst.KarstPolygons = "karst/karst_geology.shp"
	m.Importance.Layers = []ImportanceLayer{
		{Path: "resources/healthy_waters.shp", Weight: 1},
		{Path: "resources/drinking_water_zones.shp", Weight: 2},
	}
	m.Priority.ConsMask = "inputs/consMask.asc"
	m.Priority.RestMask = "inputs/restMask.asc"
	m.Priority.MgmtMask = "inputs/mgmtMask.asc"
	return m
}

// WriteExample encodes the example manifest to w.
func WriteExample(w io.Writer) error {
	return toml.NewEncoder(w).Encode(Example())
}

// WriteExampleFile writes the example manifest to path, refusing to overwrite.
func WriteExampleFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := WriteExample(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
