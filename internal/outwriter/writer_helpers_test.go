package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 3.14159, "3.14"},
		{"precision 0", 0, 3.14159, "3"},
		{"negative value", 1, -42.567, "-42.6"},
		{"null", 2, math.NaN(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"cells": 4}))
	assert.Equal(t, "{\n  \"cells\": 4\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	assert.ErrorContains(t, err, "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"layer", "note"}, func(w *csv.Writer) error {
		return w.Write([]string{"flowScore", "a, b"})
	})
	require.NoError(t, err)
	assert.Equal(t, "layer,note\nflowScore,\"a, b\"\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error { return assert.AnError })
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "out.txt")
	err := writeWithFile(tmpFile, func(w io.Writer) error {
		_, err := w.Write([]byte("content"))
		return err
	}, "Wrote test")
	require.NoError(t, err)

	content, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))

	err = writeWithFile(tmpFile, func(io.Writer) error { return assert.AnError }, "Wrote test")
	assert.Equal(t, assert.AnError, err)

	err = writeWithFile("/nonexistent/path/file.txt", func(io.Writer) error { return nil }, "Wrote test")
	assert.Error(t, err)
}
