package vector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadAttributeTable reads a CSV join table and returns the numeric column
// valueField keyed by keyField. Blank values are skipped.
func ReadAttributeTable(path, keyField, valueField string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := DecodeAttributeTable(f, keyField, valueField)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// DecodeAttributeTable is ReadAttributeTable over a reader.
func DecodeAttributeTable(r io.Reader, keyField, valueField string) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	keyIdx, valIdx := column(header, keyField), column(header, valueField)
	if keyIdx < 0 {
		return nil, fmt.Errorf("column %s not found", keyField)
	}
	if valIdx < 0 {
		return nil, fmt.Errorf("column %s not found", valueField)
	}

	out := make(map[string]float64)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		raw := strings.TrimSpace(rec[valIdx])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, valueField, err)
		}
		out[NormalizeKey(rec[keyIdx])] = v
	}
	return out, nil
}

func column(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
			return i
		}
	}
	return -1
}

// NormalizeKey drops a trailing ".0" so ids exported as floats match
// integer ids read from shapefiles.
func NormalizeKey(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ".0")
}
