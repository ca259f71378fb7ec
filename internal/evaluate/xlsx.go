package evaluate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	outcomeSheet = "Outcomes"
	summarySheet = "Summary"
)

var outcomeHeader = []any{"File", "Theme", "Expected", "Got", "Passed", "Mismatched slots", "Error", "Expected theme", "Theme mismatch"}

// WriteXLSX writes the report as a workbook: one row per image plus a
// summary sheet.
func WriteXLSX(path string, r *Report) error {
	if r == nil {
		return errors.New("report is nil")
	}
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", outcomeSheet); err != nil {
		return err
	}
	if err := wb.SetSheetRow(outcomeSheet, "A1", &outcomeHeader); err != nil {
		return err
	}
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		row := []any{
			o.File,
			o.Theme,
			strings.Join(o.Expected, " | "),
			strings.Join(o.Got, " | "),
			o.Passed,
			joinInts(o.Mismatches()),
			errText,
			o.ExpectedTheme,
			o.ThemeMismatch(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(outcomeSheet, cell, &row); err != nil {
			return err
		}
	}
	_ = wb.SetColWidth(outcomeSheet, "A", "A", 28)
	_ = wb.SetColWidth(outcomeSheet, "C", "D", 60)

	if _, err := wb.NewSheet(summarySheet); err != nil {
		return err
	}
	summary := [][]any{
		{"Images", len(r.Outcomes)},
		{"Passed", r.Passed()},
		{"Success rate", r.SuccessRate()},
		{"Theme mismatches", r.ThemeMismatches()},
	}
	for i, row := range summary {
		if err := wb.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ",")
}
