package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/manifest"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/observability"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/outwriter"
	"github.com/spf13/cobra"
)

// runCmd executes the full scoring workflow for one manifest.
var runCmd = &cobra.Command{
	Use:   "run [manifest]",
	Short: "Run the scoring workflow and write the score rasters",
	Long: `Run every stage of the watershed impact workflow described by a manifest.

Stages:
- Soils: hydrologic soil group and K-factor from soil unit rasters
- Slope: slope transform (TRUNCLIN, TRUNCSIN or RUSLE)
- Soil loss and event runoff from curve numbers
- Soil sensitivity, flow distance and karst proximity scores
- Position and impact scores, then optional importance and priorities

Soil or flow units whose inputs are missing or misaligned are skipped and
reported; the remaining units are mosaicked.

Examples:
  # Run the manifest in the current directory
  wim run

  # Run a manifest, writing compressed rasters to another directory
  wim run basins/upper-james.toml --raster-format wgz --output-dir /tmp/wim

  # Track the run in a SQLite analysis store and export a metrics textfile
  wim run --analysis-backend sqlite --metrics-file wim.prom`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		metrics := observability.NewMetrics()
		if err := executeRun(rootCtx, cfg, newCLILogger(), metrics); err != nil {
			contract.LogFatal("Run failed", err)
		}
	},
}

// newCLILogger builds the stage logger from the validated config. Logs go to
// stderr so that stdout stays clean for results.
func newCLILogger() *slog.Logger {
	return observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

// executeRun loads the manifest, runs the pipeline and prints the run report.
// The report is printed for partial runs too, before the error is returned.
func executeRun(ctx context.Context, cfg *contract.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}

	p := core.NewPipeline(m, cfg, cacheManager, core.WithLogger(logger), core.WithMetrics(metrics))
	result, runErr := p.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteToTextfile(cfg.MetricsFile); err != nil {
			contract.LogWarn("Cannot write metrics file", err)
		}
	}
	if len(result.Layers) > 0 || runErr == nil {
		if err := outwriter.NewOutWriter().WriteRun(result, cfg); err != nil {
			return fmt.Errorf("write run report: %w", err)
		}
	}
	return runErr
}
