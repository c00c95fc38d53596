package excel

import "disputelens/domain/analysis"

// ExcelData represents one sheet read as ordered rows
type ExcelData struct {
	Sheet   string
	Headers []string       // Column headers
	Rows    []analysis.Row // Data rows, keyed by header in column order
}

// UploadInfo describes a workbook that passed the upload pre-check
type UploadInfo struct {
	Filename string
	Sheet    string
	Headers  []string
	RowCount int
	// Inspected is false for legacy .xls files, which are accepted on
	// extension alone.
	Inspected bool
}
