package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/manifest"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/observability"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// curveNumberResult is the curve_number tool response.
type curveNumberResult struct {
	LandCover   int     `json:"land_cover"`
	Class       string  `json:"class,omitempty"`
	HydroGroup  int     `json:"hydro_group"`
	CurveNumber float64 `json:"curve_number"`
	Retention   float64 `json:"retention"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleCurveNumber(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lc := request.GetFloat("land_cover", math.NaN())
	if math.IsNaN(lc) || lc != math.Trunc(lc) {
		return mcp.NewToolResultError("land_cover must be an integer NLCD code"), nil
	}
	label := request.GetString("hydro_group", "")
	group, ok := core.HydroGroupCode(label)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid hydro_group %q: use A, B, C or D", label)), nil
	}

	cn := core.CurveNumberValue(lc, float64(group))
	res := curveNumberResult{
		LandCover:   int(lc),
		HydroGroup:  group,
		CurveNumber: cn,
		Retention:   core.Retention(cn),
	}
	for _, row := range core.CurveNumberRows() {
		if row.Code == res.LandCover {
			res.Class = row.Class
		}
	}
	return jsonResult(res)
}

func (h *toolHandler) handleRunoffDepth(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rain := request.GetFloat("rain", -1)
	cn := request.GetFloat("curve_number", -1)
	if rain < 0 {
		return mcp.NewToolResultError("rain must be zero or positive"), nil
	}
	if cn < 0 || cn > 100 {
		return mcp.NewToolResultError("curve_number must be between 0 and 100"), nil
	}

	depth := 0.0
	ret := core.Retention(cn)
	if cn > 0 {
		depth = core.RunoffDepth(rain, ret)
	}
	return jsonResult(map[string]float64{
		"rain":         rain,
		"curve_number": cn,
		"retention":    ret,
		"depth":        depth,
	})
}

func (h *toolHandler) handleSlopeScore(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := schema.ParseSlopeInput(request.GetString("input_type", string(schema.SlopeDegrees)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	transform, err := schema.ParseSlopeTransform(request.GetString("transform", string(schema.RUSLE)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v := request.GetFloat("value", math.NaN())
	if math.IsNaN(v) || v < 0 {
		return mcp.NewToolResultError("value must be zero or positive"), nil
	}

	score, err := core.SlopeScore(v, input, transform)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"value":      v,
		"input_type": input,
		"transform":  transform,
		"score":      score,
	})
}

func (h *toolHandler) handleScenarioScore(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	perspective, err := schema.ParsePerspective(request.GetString("perspective", string(schema.ConservationView)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	current := request.GetFloat("current", math.NaN())
	worst := request.GetFloat("worst", math.NaN())
	best := request.GetFloat("best", math.NaN())
	if math.IsNaN(current) || math.IsNaN(worst) || math.IsNaN(best) {
		return mcp.NewToolResultError("current, worst and best are required numbers"), nil
	}
	if worst == best {
		return mcp.NewToolResultError("worst and best cases must differ"), nil
	}
	return jsonResult(map[string]any{
		"perspective": perspective,
		"score":       core.ScenarioValue(current, worst, best, perspective),
	})
}

func (h *toolHandler) handleCurveTable(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(core.CurveNumberRows())
}

func (h *toolHandler) handleValidateManifest(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("manifest_path", "")
	if path == "" {
		return mcp.NewToolResultError("manifest_path is required"), nil
	}
	m, err := manifest.Load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := m.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid manifest: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("manifest %s is valid", m.Name)), nil
}

func (h *toolHandler) handleRunPipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("manifest_path", "")
	if path == "" {
		return mcp.NewToolResultError("manifest_path is required"), nil
	}
	cfg := h.baseCfg.Clone()
	if dir := request.GetString("output_dir", ""); dir != "" {
		cfg.OutputDir = dir
	}
	if f := request.GetString("raster_format", ""); f != "" {
		format := schema.RasterFormat(f)
		if _, ok := schema.ValidRasterFormats[format]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid raster_format %q", f)), nil
		}
		cfg.RasterFormat = format
	}

	m, err := manifest.Load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := core.NewPipeline(m, cfg, h.mgr, core.WithMetrics(observability.NewLocalMetrics()))
	result, err := p.Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline failed: %v", err)), nil
	}
	return jsonResult(result)
}
