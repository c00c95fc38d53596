package api

import (
	"net/http"
	"time"

	"disputelens/domain/analysis"
	"disputelens/domain/core"
	"disputelens/ports"
)

// Backend endpoints
const (
	EndpointUpload         = "/upload"
	EndpointFilterOptions  = "/filter-options"
	EndpointAnalyze        = "/analyze"
	EndpointGenerateReport = "/generate-report"
	EndpointVisualization  = "/get_visualization/"
	EndpointExportExcel    = "/export_excel"
	EndpointClear          = "/clear"
)

// Upload form fields expected by the backend
const (
	FieldBillback = "billback"
	FieldItemRef  = "item_ref"
	FieldPPM      = "ppm"
	FieldStates   = "states"
)

// UploadFields lists the required upload parts in form order.
var UploadFields = []string{FieldBillback, FieldItemRef, FieldPPM, FieldStates}

// DefaultExcelName is used when the export reply names no attachment
const DefaultExcelName = "dispute_analysis_results.xlsx"

// UploadFile is one workbook to send
type UploadFile = ports.UploadFile

// ClientConfig holds backend client settings
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Tracing bool

	// Transport overrides the round tripper, mainly for tests.
	Transport http.RoundTripper
}

type reportRequest struct {
	SessionID core.SessionID  `json:"sessionId"`
	Format    analysis.Format `json:"format"`
}
