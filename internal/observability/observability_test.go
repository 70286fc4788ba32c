package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, schema.JSONLog)
	logger.Debug("hidden")
	logger.Info("stage finished", "stage", "slope", "cells", 42)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "stage finished", rec["msg"])
	assert.Equal(t, "slope", rec["stage"])
	assert.InDelta(t, 42, rec["cells"], 0)

	buf.Reset()
	NewLogger(&buf, slog.LevelDebug, schema.TextLog).Debug("visible", "stage", "runoff")
	assert.Contains(t, buf.String(), "stage=runoff")
}

func TestMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.StagesCompleted.WithLabelValues("slope").Inc()
	m.CacheLookups.WithLabelValues("slope", "hit").Inc()
	m.CacheLookups.WithLabelValues("slope", "hit").Inc()
	m.CellsWritten.Add(100)

	assert.InDelta(t, 1, testutil.ToFloat64(m.StagesCompleted.WithLabelValues("slope")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues("slope", "hit")), 0)
	assert.InDelta(t, 100, testutil.ToFloat64(m.CellsWritten), 0)

	// A second instance must not collide with the first.
	assert.NotPanics(t, func() { NewMetricsForTesting() })
	assert.NotPanics(t, func() {
		NewLocalMetrics()
		NewLocalMetrics()
	})
}

func TestWriteToTextfile(t *testing.T) {
	m := NewMetricsForTesting()
	m.LayersWritten.Add(3)
	path := filepath.Join(t.TempDir(), "wim.prom")

	require.NoError(t, m.WriteToTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "wim_layers_written_total 3")
}
