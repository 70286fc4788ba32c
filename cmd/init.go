package cmd

import (
	"fmt"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/manifest"
	"github.com/spf13/cobra"
)

// initCmd writes a commented starting manifest.
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example manifest to start from",
	Long: `Write an example manifest listing every section with typical values.

An existing file is never overwritten.

Examples:
  wim init
  wim init basins/upper-james.toml`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := contract.DefaultManifest
		if len(args) == 1 {
			path = args[0]
		}
		if err := manifest.WriteExampleFile(path); err != nil {
			contract.LogFatal("Cannot write manifest", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Example manifest written to %s\n", path)
	},
}
