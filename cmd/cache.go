package cmd

import (
	"fmt"
	"os"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/iocache"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// No analysis tracking for cache commands
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup. No manifest is needed for cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the stage cache (speeds up repeated runs)",
	Long: `Manage the cache of expensive stage outputs.

Slope transforms, sinkhole densities and karst distance grids are cached
under a digest of their parameters and input cells, so re-running a manifest
with unchanged inputs skips them. Entries expire after seven days.

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  wim cache status

  # Clear cache after replacing input rasters in place
  wim cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached stage outputs",
	Long: `Delete all cached stage outputs from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  wim cache clear

  # Clear MySQL cache (set connection string via env variable)
  WIM_CACHE_BACKEND=mysql WIM_CACHE_DB_CONNECT="..." wim cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the stage cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  wim cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetCacheStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("no cache backend configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
