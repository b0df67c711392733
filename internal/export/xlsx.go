// Package export renders an expense report as an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"spendtrack/internal/core"
	"spendtrack/internal/report"
)

const sheetName = "Expenses"

var headers = []string{"Date", "Amount", "Category", "Description"}

// Filename returns the download name for a report generated today:
// expense-report-<period>-<YYYY-MM-DD>.xlsx.
func Filename(period report.Period, today core.Date) string {
	return fmt.Sprintf("expense-report-%s-%s.xlsx", period, today.ISO())
}

// WriteXLSX writes the report's full in-window record set to w as a single
// sheet, one row per expense, newest first. An empty report writes nothing
// and returns 0, nil; the caller decides how to represent the absence of a
// file.
func WriteXLSX(w io.Writer, r report.Report) (int64, error) {
	if r.Empty() {
		return 0, nil
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return 0, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return 0, fmt.Errorf("drop default sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return 0, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
	}

	rows := sortedNewestFirst(r.InWindow)
	for i, e := range rows {
		desc := e.Description
		if desc == "" {
			desc = "N/A"
		}
		values := []any{
			e.Date.Format("01/02/2006"),
			e.Amount.String(),
			string(e.Category),
			desc,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return 0, fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return 0, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	return f.WriteTo(w)
}

func sortedNewestFirst(expenses []core.Expense) []core.Expense {
	out := make([]core.Expense, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
