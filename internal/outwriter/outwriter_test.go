package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() schema.RunResult {
	return schema.RunResult{
		RunID:     "5d1e",
		Name:      "upper-james",
		StartTime: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		Duration:  2500 * time.Millisecond,
		Layers: []schema.LayerSummary{
			{Name: "impactScore", Path: "out/impactScore.asc", Cells: 100, DataCells: 90, Min: 1, Max: 100, Mean: 85.3, StdDev: 4},
			{Name: "flowScore", Path: "out/flowScore.asc", Cells: 100, DataCells: 40, Min: 1, Max: 100, Mean: 30, StdDev: 20},
		},
		Failures: []schema.UnitFailure{{Stage: "soils", Unit: "VA001", Reason: "missing source"}},
	}
}

func testConfig(output schema.OutputMode, file string) *contract.Config {
	return &contract.Config{Output: output, OutputFile: file, Precision: 2, Width: 160, Workers: 4, CacheBackend: schema.SQLiteBackend}
}

func TestWriteRunTable(t *testing.T) {
	var buf bytes.Buffer
	fmtFloat, intFmt := createFormatters(2)
	cfg := testConfig(schema.TextOut, "")
	require.NoError(t, writeRunTable(&buf, sampleRun(), cfg, fmtFloat, intFmt))

	out := buf.String()
	assert.Contains(t, out, "impactScore")
	assert.Contains(t, out, "85.30")
	assert.Contains(t, out, schema.CriticalValue)
	assert.Contains(t, out, "VA001")
	assert.Contains(t, out, "Run 5d1e (upper-james) wrote 2 layers, skipped 1 units")
	assert.Contains(t, out, "completed in 2.5s with 4 workers")
}

func TestWriteRunCSV(t *testing.T) {
	var buf bytes.Buffer
	fmtFloat, intFmt := createFormatters(1)
	require.NoError(t, writeRunCSV(&buf, sampleRun().Layers, fmtFloat, intFmt))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "rank,layer,path,cells,data_cells,min,max,mean,std_dev,label", lines[0])
	assert.Equal(t, "1,impactScore,out/impactScore.asc,100,90,1.0,100.0,85.3,4.0,Critical", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",Low"))
}

func TestWriteRunJSON(t *testing.T) {
	var buf bytes.Buffer
	run := sampleRun()
	run.Failures = nil
	require.NoError(t, writeRunJSON(&buf, run))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "5d1e", decoded["run_id"])
	assert.Equal(t, float64(2500), decoded["duration_ms"])
	assert.Equal(t, []any{}, decoded["failures"])

	layers := decoded["layers"].([]any)
	require.Len(t, layers, 2)
	first := layers[0].(map[string]any)
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, "Critical", first["label"])
	assert.Equal(t, "impactScore", first["name"])
}

func TestWriteRunResultToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, NewOutWriter().WriteRun(sampleRun(), testConfig(schema.JSONOut, path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestWriteCurveNumbers(t *testing.T) {
	rows := []schema.CurveNumberRow{
		{Code: 11, Class: "Open Water"},
		{Code: 21, Class: "Developed, Open Space", A: 49, B: 69, C: 79, D: 84},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCurveNumberCSV(&buf, rows))
	assert.Equal(t, "code,class,a,b,c,d\n11,Open Water,0,0,0,0\n21,\"Developed, Open Space\",49,69,79,84\n", buf.String())

	buf.Reset()
	require.NoError(t, writeCurveNumberText(&buf, rows))
	assert.Contains(t, buf.String(), "Open Water")
	assert.Contains(t, buf.String(), "treated as D")

	path := filepath.Join(t.TempDir(), "curves.json")
	require.NoError(t, NewOutWriter().WriteCurveNumbers(rows, testConfig(schema.JSONOut, path)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []schema.CurveNumberRow
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rows, decoded)
}

func TestGetMaxTablePathWidth(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{80, 15},
		{130, 35},
		{300, 70},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, getMaxTablePathWidth(&contract.Config{Width: tt.width}))
	}
}
