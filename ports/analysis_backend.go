package ports

import (
	"context"
	"encoding/json"
	"io"

	"disputelens/domain/analysis"
	"disputelens/domain/core"
)

// UploadFile is one workbook to send to the backend
type UploadFile struct {
	Filename string
	Content  io.Reader
}

// AnalysisBackend is the external server that performs the reconciliation.
type AnalysisBackend interface {
	// Upload sends the four workbooks keyed by form field name and returns the new session
	Upload(ctx context.Context, files map[string]UploadFile) (core.SessionID, error)

	// FilterOptions lists selectable markets, brands, years and months for a session
	FilterOptions(ctx context.Context, sessionID core.SessionID) (*analysis.FilterOptions, error)

	// Analyze runs the reconciliation for one filter selection
	Analyze(ctx context.Context, filters analysis.Filters) (*analysis.Result, error)

	// GenerateReport renders a summary report of the last analysis in the given format
	GenerateReport(ctx context.Context, sessionID core.SessionID, format analysis.Format) (*analysis.Report, error)

	// Visualization fetches a single chart figure of the last analysis
	Visualization(ctx context.Context, sessionID core.SessionID, name string) (json.RawMessage, error)

	// Clear drops the uploaded files and analysis state on the server
	Clear(ctx context.Context, sessionID core.SessionID) error
}
