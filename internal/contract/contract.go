// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetCacheStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for the stage cache.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking pipeline runs and their products.
type AnalysisStore interface {
	// BeginAnalysis creates a new run and returns its unique ID
	BeginAnalysis(runUUID string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, layersWritten, unitsFailed int) error

	// RecordLayerStats stores summary statistics for one finalized product
	RecordLayerStats(analysisID int64, layerName string, stats schema.LayerStats) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllLayerStats returns every recorded layer row
	GetAllLayerStats() ([]schema.LayerStatsRecord, error)

	// Close closes the underlying connection
	Close() error
}
