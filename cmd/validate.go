package cmd

import (
	"fmt"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/manifest"
	"github.com/spf13/cobra"
)

// validateCmd checks a manifest without running any stage.
var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check a manifest for missing sections and invalid options",
	Long: `Parse a manifest and report every problem found in it.

Checks include the reference grid, slope input and transform, runoff mode,
importance layers and priority rescale options. Input files are not opened.

Examples:
  wim validate
  wim validate basins/upper-james.toml`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		m, err := manifest.Load(cfg.ManifestPath)
		if err != nil {
			contract.LogFatal("Cannot load manifest", err)
		}
		if err := m.Validate(); err != nil {
			contract.LogFatal("Invalid manifest", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Manifest %s is valid.\n", contract.TruncatePath(cfg.ManifestPath, 80))
	},
}
