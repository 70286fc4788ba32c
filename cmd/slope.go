package cmd

import (
	"fmt"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/rasterio"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// slopeCmd applies a slope transform to a single raster.
var slopeCmd = &cobra.Command{
	Use:   "slope <input> <output>",
	Short: "Transform a slope or elevation raster into a slope score",
	Long: `Apply one slope transform to a raster outside of a full run.

Transforms:
  TRUNCLIN  0 at or below 1 degree, 100 above 30 degrees, linear between
  TRUNCSIN  200 times the sine of the slope angle, capped at 100
  RUSLE     the RUSLE slope steepness factor

ELEVATION input is converted to percent rise first; --z-factor converts
elevation units to ground units.

Examples:
  wim slope slope_deg.asc slope_score.asc --transform TRUNCLIN
  wim slope dem.asc s_factor.wgz --input-type ELEVATION --z-factor 0.3048`,
	Args:    cobra.ExactArgs(2),
	PreRunE: noManifestSetup,
	Run: func(cmd *cobra.Command, args []string) {
		in, err := rasterio.Open(args[0])
		if err != nil {
			contract.LogFatal("Cannot read input raster", err)
		}
		res, err := core.SlopeTransform(in,
			schema.SlopeInput(viper.GetString("input-type")),
			schema.SlopeTransform(viper.GetString("transform")),
			viper.GetFloat64("z-factor"))
		if err != nil {
			contract.LogFatal("Cannot transform slope", err)
		}
		if err := rasterio.Write(args[1], res.Score, cfg.Precision); err != nil {
			contract.LogFatal("Cannot write output raster", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Slope score written to %s (%d data cells)\n", args[1], res.Score.DataCount())
	},
}
