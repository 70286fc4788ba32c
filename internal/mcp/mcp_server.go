// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the watershed impact MCP server
// without starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Watershed Impact Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: curve_number ---
	s.AddTool(mcp.NewTool("curve_number",
		mcp.WithDescription("Look up the runoff curve number and retention for an NLCD land-cover class and hydrologic soil group."),
		mcp.WithNumber("land_cover", mcp.Description("NLCD land-cover code (e.g. 31 for barren land)."), mcp.Required()),
		mcp.WithString("hydro_group", mcp.Description("Hydrologic soil group label (A, B, C, D or a dual group such as A/D). Blank is treated as D.")),
	), h.handleCurveNumber)

	// --- 2. Tool: runoff_depth ---
	s.AddTool(mcp.NewTool("runoff_depth",
		mcp.WithDescription("Compute SCS event runoff depth in inches from rainfall and a curve number."),
		mcp.WithNumber("rain", mcp.Description("Event rainfall in inches."), mcp.Required()),
		mcp.WithNumber("curve_number", mcp.Description("Runoff curve number between 0 and 100."), mcp.Required()),
	), h.handleRunoffDepth)

	// --- 3. Tool: slope_score ---
	s.AddTool(mcp.NewTool("slope_score",
		mcp.WithDescription("Transform a slope value into a slope factor or score."),
		mcp.WithNumber("value", mcp.Description("Slope value in degrees or percent rise."), mcp.Required()),
		mcp.WithString("input_type", mcp.Description("Unit of the slope value. Defaults to DEGREES."), mcp.Enum("DEGREES", "PERCENT")),
		mcp.WithString("transform", mcp.Description("Slope transform. Defaults to RUSLE."), mcp.Enum("TRUNCLIN", "TRUNCSIN", "RUSLE")),
	), h.handleSlopeScore)

	// --- 4. Tool: curve_table ---
	s.AddTool(mcp.NewTool("curve_table",
		mcp.WithDescription("List the runoff curve number table by land-cover class and hydrologic group."),
	), h.handleCurveTable)

	// --- 5. Tool: scenario_score ---
	s.AddTool(mcp.NewTool("scenario_score",
		mcp.WithDescription("Place a value between its worst and best case on a 0 to 100 scale, e.g. runoff under current land cover against bare and forested cover."),
		mcp.WithNumber("current", mcp.Description("Value for the case being scored."), mcp.Required()),
		mcp.WithNumber("worst", mcp.Description("Value for the worst case."), mcp.Required()),
		mcp.WithNumber("best", mcp.Description("Value for the best case."), mcp.Required()),
		mcp.WithString("perspective", mcp.Description("CONS scores the best case 100; REST scores the worst case 100. Defaults to CONS."), mcp.Enum("CONS", "REST")),
	), h.handleScenarioScore)

	// --- 6. Tool: validate_manifest ---
	s.AddTool(mcp.NewTool("validate_manifest",
		mcp.WithDescription("Check a run manifest for missing inputs and invalid parameters without running it."),
		mcp.WithString("manifest_path", mcp.Description("Path to the TOML run manifest."), mcp.Required()),
	), h.handleValidateManifest)

	// --- 7. Tool: run_pipeline ---
	s.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run the full watershed impact scoring pipeline for a manifest and summarize the written layers."),
		mcp.WithString("manifest_path", mcp.Description("Path to the TOML run manifest."), mcp.Required()),
		mcp.WithString("output_dir", mcp.Description("Directory for output rasters (defaults to the manifest output directory).")),
		mcp.WithString("raster_format", mcp.Description("Output raster format."), mcp.Enum("asc", "wgz")),
	), h.handleRunPipeline)

	return s
}

// StartMCPServer starts the watershed impact MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
