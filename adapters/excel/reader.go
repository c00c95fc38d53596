package excel

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"disputelens/domain/analysis"
	"disputelens/internal/errors"
)

// DataReader checks and reads workbooks
type DataReader struct {
	config ExcelConfig
}

// NewDataReader creates a reader with the given limits
func NewDataReader(config ExcelConfig) *DataReader {
	return &DataReader{config: config}
}

// AllowedFile reports whether the file name has an accepted extension
func (r *DataReader) AllowedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range r.config.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// CheckUpload validates a workbook on disk before it is sent to the backend.
func (r *DataReader) CheckUpload(path string) (*UploadInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("cannot open %s: %v", filepath.Base(path), err))
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	return r.CheckUploadReader(filepath.Base(path), f, stat.Size())
}

// CheckUploadReader validates an uploaded workbook stream. The extension must
// be allowed and .xlsx files must have a header row on their first sheet.
func (r *DataReader) CheckUploadReader(name string, src io.Reader, size int64) (*UploadInfo, error) {
	if !r.AllowedFile(name) {
		return nil, errors.InvalidInput(fmt.Sprintf("Invalid file format for %s. Please upload Excel files (.xlsx, .xls).", name))
	}
	if r.config.MaxUploadSize > 0 && size > r.config.MaxUploadSize {
		return nil, errors.InvalidInput(fmt.Sprintf("File %s too large. Maximum allowed size is %dMB.", name, r.config.MaxUploadSize>>20))
	}

	info := &UploadInfo{Filename: name}
	if strings.ToLower(filepath.Ext(name)) != ".xlsx" {
		return info, nil
	}

	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("%s is not a readable Excel workbook: %v", name, err))
	}
	defer f.Close()

	data, err := readFirstSheet(f)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("%s: %v", name, err))
	}

	info.Sheet = data.Sheet
	info.Headers = data.Headers
	info.RowCount = len(data.Rows)
	info.Inspected = true
	log.Printf("[DataReader] %s checked in %.2fms (%d columns, %d rows)",
		name, float64(time.Since(startTime).Nanoseconds())/1e6, len(info.Headers), info.RowCount)
	return info, nil
}

// ReadData reads the first sheet of an .xlsx file into ordered rows
func (r *DataReader) ReadData(path string) (*ExcelData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return readFirstSheet(f)
}

func readFirstSheet(f *excelize.File) (*ExcelData, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}
	return processRows(sheet, rows), nil
}

// processRows converts raw string rows into ExcelData format
func processRows(sheet string, rows [][]string) *ExcelData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]analysis.Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		fields := make([]analysis.Field, len(headers))
		for j, header := range headers {
			value := ""
			if j < len(row) {
				value = strings.TrimSpace(row[j])
			}
			fields[j] = analysis.Field{Key: header, Value: value}
		}
		dataRows = append(dataRows, analysis.Row{Fields: fields})
	}

	return &ExcelData{Sheet: sheet, Headers: headers, Rows: dataRows}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
