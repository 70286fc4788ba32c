package contract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 1
	MaxPrecision     = 3
	DefaultManifest  = "wim.toml"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	ManifestPath string
	Workers      int
	Precision    int
	Output       schema.OutputMode
	OutputFile   string
	Width        int // Terminal width override (0 = auto-detect)
	UseColors    bool

	RasterFormat schema.RasterFormat
	OutputDir    string // Overrides the manifest output directory when set
	Parquet      bool   // Also export final score cells as parquet
	MetricsFile  string // Prometheus textfile written after each run

	LogLevel  slog.Level
	LogFormat schema.LogFormat

	NoCache        bool
	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	ManifestPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile        string `mapstructure:"output-file"`
	Workers           int    `mapstructure:"workers"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	LogLevel          string `mapstructure:"log-level"`
	LogFormat         string `mapstructure:"log-format"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Fields from runCmd.Flags() ---
	RasterFormat string `mapstructure:"raster-format"`
	OutputDir    string `mapstructure:"output-dir"`
	Parquet      bool   `mapstructure:"parquet"`
	MetricsFile  string `mapstructure:"metrics-file"`
	NoCache      bool   `mapstructure:"no-cache"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := resolveManifestPath(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend != "" {
		if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
			return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
		}
		cfg.AnalysisDBConnect = input.AnalysisDBConnect
		if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
			return err
		}

		// Validate that cache and analysis use different databases
		if cfg.CacheBackend == cfg.AnalysisBackend && cfg.CacheBackend == schema.SQLiteBackend {
			cacheDBPath := cfg.CacheDBConnect
			if cacheDBPath == "" {
				cacheDBPath = GetCacheDBFilePath()
			}
			analysisDBPath := cfg.AnalysisDBConnect
			if analysisDBPath == "" {
				analysisDBPath = GetAnalysisDBFilePath()
			}
			if cacheDBPath == analysisDBPath {
				return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
			}
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.OutputDir = input.OutputDir
	cfg.Parquet = input.Parquet
	cfg.MetricsFile = input.MetricsFile
	cfg.NoCache = input.NoCache

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	// --- 3. Raster Format Validation ---
	// Empty defers to the manifest output format.
	cfg.RasterFormat = schema.RasterFormat(strings.ToLower(input.RasterFormat))
	if _, ok := schema.ValidRasterFormats[cfg.RasterFormat]; !ok && cfg.RasterFormat != "" {
		return fmt.Errorf("invalid raster format '%s'. must be asc, wgz", input.RasterFormat)
	}

	// --- 4. Logging Validation ---
	if err := cfg.LogLevel.UnmarshalText([]byte(input.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}
	cfg.LogFormat = schema.LogFormat(strings.ToLower(input.LogFormat))
	if _, ok := schema.ValidLogFormats[cfg.LogFormat]; !ok {
		return fmt.Errorf("invalid log format '%s'. must be text, json", input.LogFormat)
	}

	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveManifestPath makes the manifest path absolute and checks that it exists.
// Commands that take no manifest leave it empty.
func resolveManifestPath(cfg *Config, input *ConfigRawInput) error {
	if input.ManifestPathStr == "" {
		cfg.ManifestPath = ""
		return nil
	}
	abs, err := filepath.Abs(input.ManifestPathStr)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", input.ManifestPathStr, err)
	}
	if info.IsDir() {
		abs = filepath.Join(abs, DefaultManifest)
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("manifest %s: %w", abs, err)
		}
	}
	cfg.ManifestPath = filepath.Clean(abs)
	return nil
}
