package contract

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Workers:         4,
		Precision:       1,
		Output:          "text",
		Color:           "yes",
		RasterFormat:    "asc",
		LogLevel:        "info",
		LogFormat:       "text",
		CacheBackend:    "sqlite",
		AnalysisBackend: "none",
	}
}

func TestProcessAndValidate(t *testing.T) {
	manifestDir := t.TempDir()
	manifestPath := filepath.Join(manifestDir, DefaultManifest)
	require.NoError(t, os.WriteFile(manifestPath, []byte("name = \"test\"\n"), 0o644))

	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{
			name:   "valid minimal config",
			mutate: func(*ConfigRawInput) {},
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "zero workers",
			mutate:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: true,
		},
		{
			name:        "precision too high",
			mutate:      func(in *ConfigRawInput) { in.Precision = 4 },
			expectError: true,
		},
		{
			name:        "invalid raster format",
			mutate:      func(in *ConfigRawInput) { in.RasterFormat = "tif" },
			expectError: true,
		},
		{
			name:   "raster format from manifest",
			mutate: func(in *ConfigRawInput) { in.RasterFormat = "" },
		},
		{
			name:        "invalid log level",
			mutate:      func(in *ConfigRawInput) { in.LogLevel = "chatty" },
			expectError: true,
		},
		{
			name:        "invalid log format",
			mutate:      func(in *ConfigRawInput) { in.LogFormat = "xml" },
			expectError: true,
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: true,
		},
		{
			name:        "invalid cache backend",
			mutate:      func(in *ConfigRawInput) { in.CacheBackend = "redis" },
			expectError: true,
		},
		{
			name: "same sqlite file for cache and analysis",
			mutate: func(in *ConfigRawInput) {
				in.AnalysisBackend = "sqlite"
				in.CacheDBConnect = "/tmp/same.db"
				in.AnalysisDBConnect = "/tmp/same.db"
			},
			expectError: true,
		},
		{
			name:   "manifest file",
			mutate: func(in *ConfigRawInput) { in.ManifestPathStr = manifestPath },
		},
		{
			name:   "manifest directory",
			mutate: func(in *ConfigRawInput) { in.ManifestPathStr = manifestDir },
		},
		{
			name:        "missing manifest",
			mutate:      func(in *ConfigRawInput) { in.ManifestPathStr = filepath.Join(manifestDir, "nope.toml") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, cfg.Workers)
			if input.ManifestPathStr != "" {
				assert.Equal(t, manifestPath, cfg.ManifestPath)
			}
		})
	}
}

func TestProcessAndValidateTransfersFields(t *testing.T) {
	input := validInput()
	input.Output = "JSON"
	input.RasterFormat = "WGZ"
	input.LogLevel = "debug"
	input.LogFormat = "json"
	input.Parquet = true
	input.MetricsFile = "wim.prom"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.Equal(t, schema.CompressedGrid, cfg.RasterFormat)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, schema.JSONLog, cfg.LogFormat)
	assert.True(t, cfg.Parquet)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, "wim.prom", cfg.MetricsFile)
	assert.Equal(t, schema.NoneBackend, cfg.AnalysisBackend)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite needs nothing", schema.SQLiteBackend, "", false},
		{"none needs nothing", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/wim", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql no tcp", schema.MySQLBackend, "user:pass@localhost/wim", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 user=wim dbname=wim", false},
		{"postgres no host", schema.PostgreSQLBackend, "dbname=wim", true},
		{"postgres no dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessProfilingConfig(t *testing.T) {
	var profile ProfileConfig
	require.NoError(t, ProcessProfilingConfig(&profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(&profile, "wim-run"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "wim-run", profile.Prefix)
}
