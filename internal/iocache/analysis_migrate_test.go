package iocache

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAnalysis_NoneBackend(t *testing.T) {
	err := MigrateAnalysis(&bytes.Buffer{}, schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for NoneBackend")
}

func TestMigrateAnalysis_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	var out bytes.Buffer

	require.NoError(t, MigrateAnalysis(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "to version 2")

	out.Reset()
	require.NoError(t, MigrateAnalysis(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "No migration needed")

	require.NoError(t, MigrateAnalysis(&out, schema.SQLiteBackend, dbPath, 1))
	assert.False(t, indexExists(t, dbPath, "idx_wim_runs_uuid"))

	require.NoError(t, MigrateAnalysis(&out, schema.SQLiteBackend, dbPath, 0))
	require.NoError(t, MigrateAnalysis(&out, schema.SQLiteBackend, dbPath, 2))
	assert.True(t, indexExists(t, dbPath, "idx_wim_runs_uuid"))
}

func TestMigrateAnalysis_StoreTablesCoexist(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "coexist.db")

	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// The store created the tables already; the first migration must not fail.
	require.NoError(t, MigrateAnalysis(&bytes.Buffer{}, schema.SQLiteBackend, dbPath, -1))
}

func indexExists(t *testing.T, dbPath, name string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", name).Scan(&count)
	require.NoError(t, err)
	return count > 0
}
