package cmd

import (
	"fmt"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/rasterio"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scenarioCmd scores a case raster between its worst and best case rasters.
var scenarioCmd = &cobra.Command{
	Use:   "scenario <case> <worst> <best> <output>",
	Short: "Score a case raster between its worst and best case rasters",
	Long: `Place every cell of a case raster between the worst and best case
rasters on a 0 to 100 scale.

Perspectives:
  CONS  a cell at the best case scores 100, at the worst case 0
  REST  a cell at the worst case scores 100, at the best case 0

Cells where the worst and best case are equal are null. --mask restricts the
output to the non-null, non-zero cells of a mask raster.

Examples:
  wim scenario runoff_current.asc runoff_bare.asc runoff_forest.asc runoff_cons.asc
  wim scenario runoff_current.asc runoff_bare.asc runoff_forest.asc runoff_rest.wgz --perspective REST`,
	Args:    cobra.ExactArgs(4),
	PreRunE: noManifestSetup,
	Run: func(cmd *cobra.Command, args []string) {
		grids := make([]*grid.Grid, 3)
		for i, path := range args[:3] {
			g, err := rasterio.Open(path)
			if err != nil {
				contract.LogFatal("Cannot read input raster", err)
			}
			grids[i] = g
		}
		var mask *grid.Grid
		if path := viper.GetString("mask"); path != "" {
			g, err := rasterio.Open(path)
			if err != nil {
				contract.LogFatal("Cannot read mask raster", err)
			}
			mask = g
		}

		score, err := core.ScenarioScore(grids[0], grids[1], grids[2],
			schema.Perspective(viper.GetString("perspective")), mask)
		if err != nil {
			contract.LogFatal("Cannot score scenario", err)
		}
		if err := rasterio.Write(args[3], score, cfg.Precision); err != nil {
			contract.LogFatal("Cannot write output raster", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Scenario score written to %s (%d data cells)\n", args[3], score.DataCount())
	},
}
