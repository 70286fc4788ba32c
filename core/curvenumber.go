package core

import (
	"maps"
	"math"
	"slices"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
)

// Hydrologic soil groups, encoded 1 to 4.
const (
	GroupA = 1
	GroupB = 2
	GroupC = 3
	GroupD = 4
)

// WorstCaseLandCover is the NLCD barren land class used for worst-case runoff.
const WorstCaseLandCover = 31

// curveNumberRows holds the runoff curve numbers by NLCD class for groups A to D.
var curveNumberRows = map[int][4]float64{
	11: {0, 0, 0, 0},
	21: {49, 69, 79, 84},
	22: {61, 75, 83, 87},
	23: {77, 85, 90, 92},
	24: {89, 92, 94, 95},
	31: {77, 86, 91, 94},
	32: {0, 0, 0, 0},
	41: {30, 55, 70, 77},
	42: {30, 55, 70, 77},
	43: {30, 55, 70, 77},
	52: {30, 48, 65, 73},
	71: {30, 58, 71, 78},
	81: {39, 61, 74, 80},
	82: {67, 78, 85, 89},
	90: {0, 0, 0, 0},
	95: {0, 0, 0, 0},
}

var landCoverClasses = map[int]string{
	11: "Open Water",
	21: "Developed, Open Space",
	22: "Developed, Low Intensity",
	23: "Developed, Medium Intensity",
	24: "Developed, High Intensity",
	31: "Barren Land",
	32: "Unconsolidated Shore",
	41: "Deciduous Forest",
	42: "Evergreen Forest",
	43: "Mixed Forest",
	52: "Shrub/Scrub",
	71: "Grassland/Herbaceous",
	81: "Pasture/Hay",
	82: "Cultivated Crops",
	90: "Woody Wetlands",
	95: "Emergent Herbaceous Wetlands",
}

// CurveNumberRows lists the curve number table in ascending land-cover order.
func CurveNumberRows() []schema.CurveNumberRow {
	out := make([]schema.CurveNumberRow, 0, len(curveNumberRows))
	for _, code := range slices.Sorted(maps.Keys(curveNumberRows)) {
		row := curveNumberRows[code]
		out = append(out, schema.CurveNumberRow{
			Code:  code,
			Class: landCoverClasses[code],
			A:     row[0],
			B:     row[1],
			C:     row[2],
			D:     row[3],
		})
	}
	return out
}

// curveNumberTables holds one lookup table per hydrologic group. Unmatched
// land-cover codes resolve to 0.
var curveNumberTables = func() [4]grid.LookupTable {
	var out [4]grid.LookupTable
	for g := range 4 {
		entries := make(map[int]float64, len(curveNumberRows))
		for code, row := range curveNumberRows {
			entries[code] = row[g]
		}
		out[g] = grid.NewLookupTable(entries, 0)
	}
	return out
}()

// CurveNumberTable returns the lookup table for a hydrologic group (1 to 4).
func CurveNumberTable(group int) (grid.LookupTable, bool) {
	if group < GroupA || group > GroupD {
		return grid.LookupTable{}, false
	}
	return curveNumberTables[group-1], true
}

// CurveNumberValue returns the curve number for a land-cover code and group.
// A null group is treated as D. Groups outside 1 to 4 yield null.
func CurveNumberValue(landCover, group float64) float64 {
	if math.IsNaN(landCover) {
		return math.NaN()
	}
	if math.IsNaN(group) {
		group = GroupD
	}
	table, ok := CurveNumberTable(int(group))
	if !ok || group != math.Trunc(group) {
		return math.NaN()
	}
	return table.Lookup(int(landCover))
}

// CurveNumber assigns runoff curve numbers from land cover and hydrologic
// group. Land cover may be a constant class or a grid of NLCD codes.
func CurveNumber(landCover grid.Field, hydroGroup *grid.Grid) (*grid.Grid, error) {
	const op = "CurveNumber"
	if err := landCover.CheckAligned(op, hydroGroup.Geometry()); err != nil {
		return nil, err
	}
	out := grid.Build(hydroGroup.Geometry(), func(i int) float64 {
		return CurveNumberValue(landCover.At(i), hydroGroup.At(i))
	})
	return out.Integerize(), nil
}
