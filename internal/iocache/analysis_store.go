package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// Table names for run tracking.
const (
	runsTable       = "wim_runs"
	layerStatsTable = "wim_layer_stats"
	migrationsTable = "wim_schema_migrations"
)

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables creates the run tracking tables.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{layerStatsTable, getCreateLayerStatsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for wim_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid VARCHAR(36) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				layers_written INT NOT NULL DEFAULT 0,
				units_failed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				layers_written INT NOT NULL DEFAULT 0,
				units_failed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				layers_written INTEGER NOT NULL DEFAULT 0,
				units_failed INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateLayerStatsQuery returns the CREATE TABLE query for wim_layer_stats.
func getCreateLayerStatsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(layerStatsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				layer_name VARCHAR(128) NOT NULL,
				record_time DATETIME(6) NOT NULL,
				cells INT NOT NULL,
				data_cells INT NOT NULL,
				min_value DOUBLE NOT NULL,
				max_value DOUBLE NOT NULL,
				mean_value DOUBLE NOT NULL,
				std_dev DOUBLE NOT NULL,
				score_label VARCHAR(50) NOT NULL,
				output_path VARCHAR(1024),
				PRIMARY KEY (run_id, layer_name)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				layer_name TEXT NOT NULL,
				record_time TIMESTAMPTZ NOT NULL,
				cells INT NOT NULL,
				data_cells INT NOT NULL,
				min_value DOUBLE PRECISION NOT NULL,
				max_value DOUBLE PRECISION NOT NULL,
				mean_value DOUBLE PRECISION NOT NULL,
				std_dev DOUBLE PRECISION NOT NULL,
				score_label TEXT NOT NULL,
				output_path TEXT,
				PRIMARY KEY (run_id, layer_name)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				layer_name TEXT NOT NULL,
				record_time TEXT NOT NULL,
				cells INTEGER NOT NULL,
				data_cells INTEGER NOT NULL,
				min_value REAL NOT NULL,
				max_value REAL NOT NULL,
				mean_value REAL NOT NULL,
				std_dev REAL NOT NULL,
				score_label TEXT NOT NULL,
				output_path TEXT,
				PRIMARY KEY (run_id, layer_name)
			);
		`, quotedTableName)
	}
}

// BeginAnalysis creates a new run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(runUUID string, startTime time.Time, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if as.backend == schema.NoneBackend || as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, as.backend)

	var runID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quotedTableName)
		err = as.db.QueryRow(query, runUUID, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = as.db.Exec(query, runUUID, formatTime(startTime, as.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndAnalysis updates the run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(runID int64, endTime time.Time, layersWritten, unitsFailed int) error {
	// Skip for NoneBackend
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, as.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(as.backend, 1))

	var start timeScanner
	if err := as.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(start.t).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, layers_written = %s, units_failed = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(as.backend, 1), placeholder(as.backend, 2), placeholder(as.backend, 3),
		placeholder(as.backend, 4), placeholder(as.backend, 5))
	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, layersWritten, unitsFailed, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordLayerStats stores summary statistics for one finalized product.
func (as *AnalysisStoreImpl) RecordLayerStats(runID int64, layerName string, stats schema.LayerStats) error {
	// Skip for NoneBackend
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil
	}

	var outputPath *string
	if stats.OutputPath != "" {
		outputPath = &stats.OutputPath
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, layer_name, record_time, cells, data_cells,
		                min_value, max_value, mean_value, std_dev, score_label, output_path)
		VALUES (%s)
	`, quoteTableName(layerStatsTable, as.backend), placeholders(as.backend, 11))
	args := []any{
		runID, layerName, formatTime(stats.RecordTime, as.backend), stats.Cells, stats.DataCells,
		stats.Min, stats.Max, stats.Mean, stats.StdDev, schema.GetPlainLabel(stats.Mean), outputPath,
	}
	if _, err := as.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert layer stats: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}

	if as.backend == schema.NoneBackend || as.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest timeScanner
		lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)
		if err := as.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = last.t

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)
		if err := as.db.QueryRow(oldestRunQuery).Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest.t

		layersQuery := fmt.Sprintf("SELECT COALESCE(SUM(layers_written), 0) FROM %s", quotedRuns)
		if err := as.db.QueryRow(layersQuery).Scan(&status.TotalLayersStored); err != nil {
			return status, fmt.Errorf("failed to get total layers: %w", err)
		}
	}

	for _, table := range []string{runsTable, layerStatsTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))
		if err := as.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (as *AnalysisStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, start_time, end_time, run_duration_ms, layers_written, units_failed, config_params
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start, end timeScanner
		if err := rows.Scan(&record.RunID, &record.RunUUID, &start, &end, &record.RunDurationMs,
			&record.LayersWritten, &record.UnitsFailed, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.StartTime = start.t
		record.EndTime = end.ptr()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllLayerStats retrieves all layer statistics from the store.
func (as *AnalysisStoreImpl) GetAllLayerStats() ([]schema.LayerStatsRecord, error) {
	// Skip for NoneBackend
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, layer_name, record_time, cells, data_cells,
		min_value, max_value, mean_value, std_dev, score_label, output_path
		FROM %s ORDER BY run_id, layer_name`, quoteTableName(layerStatsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query layer stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.LayerStatsRecord
	for rows.Next() {
		var record schema.LayerStatsRecord
		var recorded timeScanner
		if err := rows.Scan(&record.RunID, &record.LayerName, &recorded, &record.Cells, &record.DataCells,
			&record.MinValue, &record.MaxValue, &record.MeanValue, &record.StdDev,
			&record.ScoreLabel, &record.OutputPath); err != nil {
			return nil, fmt.Errorf("failed to scan layer stats: %w", err)
		}
		record.RecordTime = recorded.t
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating layer stats: %w", err)
	}
	return results, nil
}
