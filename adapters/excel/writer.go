package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"disputelens/domain/analysis"
	"disputelens/internal/render"
)

// ResultsSheet is the sheet exported results are written to
const ResultsSheet = "Results"

// ExportName returns the download name of a results workbook
func ExportName(now time.Time) string {
	return fmt.Sprintf("dispute_analysis_results_%s.xlsx", now.Format("20060102_150405"))
}

// WriteRows writes the rendered table to an xlsx workbook. VAR cells are
// stored as numbers when they parse; every other cell keeps its text.
func WriteRows(w io.Writer, view render.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(view.Columns))
	for i, col := range view.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if len(view.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(view.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(ResultsSheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	index := make(map[string]int, len(view.Columns))
	for i, col := range view.Columns {
		index[col] = i
	}

	for r, row := range view.Rows {
		values := make([]interface{}, len(view.Columns))
		for i := range values {
			values[i] = ""
		}
		for _, cell := range row.Cells {
			i, ok := index[cell.Key]
			if !ok {
				continue
			}
			values[i] = cellValue(cell)
		}

		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ResultsSheet, start, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(cell render.Cell) interface{} {
	if cell.Key != analysis.KeyVariance {
		return cell.Value
	}
	if v, ok := render.ParseAmount(cell.Value); ok {
		return v
	}
	return cell.Value
}
