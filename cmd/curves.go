package cmd

import (
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/outwriter"
	"github.com/spf13/cobra"
)

// curvesCmd prints the land cover curve number table.
var curvesCmd = &cobra.Command{
	Use:   "curves",
	Short: "Display the curve number table by land cover and soil group",
	Long: `Show the runoff curve numbers assigned to each land cover class for
hydrologic soil groups A to D. Cells without a soil group use group D.

Examples:
  wim curves
  wim curves --output csv --output-file curves.csv`,
	Args:    cobra.NoArgs,
	PreRunE: noManifestSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.NewOutWriter().WriteCurveNumbers(core.CurveNumberRows(), cfg); err != nil {
			contract.LogFatal("Cannot display curve numbers", err)
		}
	},
}

// noManifestSetup validates the shared flags for commands that read no manifest.
func noManifestSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viperUnmarshalInput(); err != nil {
		return err
	}
	input.ManifestPathStr = ""
	return contract.ProcessAndValidate(cfg, input)
}
