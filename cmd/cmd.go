// Package cmd defines the command-line interface for wim.
package cmd

import (
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(slopeCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(curvesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Report format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write the report to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal places for report statistics and written rasters")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent soil and flow unit workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", string(schema.TextLog), "Log format: text or json")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Stage cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// run and watch share the output flags; sharedSetup binds the ones of
	// the command being executed.
	for _, c := range []*cobra.Command{runCmd, watchCmd} {
		c.Flags().String("raster-format", "", "Raster format for products: asc or wgz (default: manifest output.format)")
		c.Flags().String("output-dir", "", "Directory for products (default: manifest output.dir)")
		c.Flags().Bool("parquet", false, "Also export the final score cells as parquet")
		c.Flags().String("metrics-file", "", "Write Prometheus metrics in textfile format after each run")
		c.Flags().Bool("no-cache", false, "Recompute every stage instead of using the stage cache")
	}
	watchCmd.Flags().Duration("debounce", 2*time.Second, "Quiet period after a change before re-running")

	// Bind all flags of slopeCmd to Viper
	slopeCmd.Flags().String("input-type", string(schema.SlopeDegrees), "Input units: DEGREES or PERCENT or ELEVATION")
	slopeCmd.Flags().String("transform", string(schema.RUSLE), "Slope transform: TRUNCLIN or TRUNCSIN or RUSLE")
	slopeCmd.Flags().Float64("z-factor", 1, "Elevation to ground unit conversion for ELEVATION input")
	if err := viper.BindPFlags(slopeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding slope flags", err)
	}

	// Bind all flags of scenarioCmd to Viper
	scenarioCmd.Flags().String("perspective", string(schema.ConservationView), "Scenario perspective: CONS or REST")
	scenarioCmd.Flags().String("mask", "", "Optional raster restricting the output to its selected cells")
	if err := viper.BindPFlags(scenarioCmd.Flags()); err != nil {
		contract.LogFatal("Error binding scenario flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
