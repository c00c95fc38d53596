package excel

// ExcelConfig holds limits applied to uploaded workbooks
type ExcelConfig struct {
	MaxUploadSize     int64    `json:"max_upload_size"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

// DefaultExcelConfig accepts .xlsx and .xls files up to 50MB
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		MaxUploadSize:     50 << 20,
		AllowedExtensions: []string{".xlsx", ".xls"},
	}
}
