package grid

import (
	"maps"
	"slices"
)

// LookupTable maps integer codes to values, returning a default for codes it
// does not hold. It is immutable after construction.
type LookupTable struct {
	entries map[int]float64
	def     float64
}

// NewLookupTable copies entries into a new table.
func NewLookupTable(entries map[int]float64, def float64) LookupTable {
	cp := make(map[int]float64, len(entries))
	maps.Copy(cp, entries)
	return LookupTable{entries: cp, def: def}
}

// Lookup returns the value for code, or the table default.
func (t LookupTable) Lookup(code int) float64 {
	if v, ok := t.entries[code]; ok {
		return v
	}
	return t.def
}

// Has reports whether code has an explicit entry.
func (t LookupTable) Has(code int) bool {
	_, ok := t.entries[code]
	return ok
}

// Codes returns the explicit codes in ascending order.
func (t LookupTable) Codes() []int {
	return slices.Sorted(maps.Keys(t.entries))
}

// Default returns the value used for absent codes.
func (t LookupTable) Default() float64 { return t.def }
