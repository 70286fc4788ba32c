package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/schema"
	"github.com/olekukonko/tablewriter"
)

// WriteCurveNumberTable outputs the curve number table in the configured format.
func WriteCurveNumberTable(rows []schema.CurveNumberRow, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCurveNumberCSV(w, rows)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCurveNumberText(w, rows)
		}, "Wrote table")
	}
}

func curveCells(r schema.CurveNumberRow) []string {
	return []string{
		strconv.Itoa(r.Code),
		r.Class,
		strconv.FormatFloat(r.A, 'f', -1, 64),
		strconv.FormatFloat(r.B, 'f', -1, 64),
		strconv.FormatFloat(r.C, 'f', -1, 64),
		strconv.FormatFloat(r.D, 'f', -1, 64),
	}
}

func writeCurveNumberText(w io.Writer, rows []schema.CurveNumberRow) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Code", "Land Cover", "A", "B", "C", "D"})
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, curveCells(r))
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "Unlisted land-cover codes take curve number 0. A null soil group is treated as D.")
	return err
}

func writeCurveNumberCSV(w io.Writer, rows []schema.CurveNumberRow) error {
	return writeCSVWithHeader(w, []string{"code", "class", "a", "b", "c", "d"}, func(cw *csv.Writer) error {
		for _, r := range rows {
			if err := cw.Write(curveCells(r)); err != nil {
				return err
			}
		}
		return nil
	})
}
