//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestWimWithMySQL runs the workflow with MySQL stage cache and run history.
func TestWimWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "wim",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/wim?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestWimWithPostgres runs the workflow with PostgreSQL stage cache and run history.
func TestWimWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario clears both stores, runs the workflow twice and checks
// that the cache and run history saw it.
func runBackendScenario(t *testing.T, backend, connStr string) {
	t.Helper()
	home := t.TempDir()
	manifestPath := newWorkspace(t)
	env := []string{
		"WIM_CACHE_BACKEND=" + backend,
		"WIM_CACHE_DB_CONNECT=" + connStr,
		"WIM_ANALYSIS_BACKEND=" + backend,
		"WIM_ANALYSIS_DB_CONNECT=" + connStr,
	}

	_, err := runWim(t, home, env, "cache", "clear")
	require.NoError(t, err)
	_, err = runWim(t, home, env, "analysis", "clear")
	require.NoError(t, err)

	_, err = runWim(t, home, env, "run", manifestPath)
	require.NoError(t, err)
	_, err = runWim(t, home, env, "run", manifestPath)
	require.NoError(t, err)

	out, err := runWim(t, home, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: true")

	out, err = runWim(t, home, env, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")
}
