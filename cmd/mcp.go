package cmd

import (
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the watershed impact MCP server",
	Long: `Launch an MCP server on stdio so that AI agents can look up curve numbers,
score slopes, validate manifests and run the workflow through standard tools.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs stay on stderr; stdio carries the protocol.
		if err := noManifestSetup(cmd, args); err != nil {
			return err
		}
		return initPersistence()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
