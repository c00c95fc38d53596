package main

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"disputelens/adapters/api"
	"disputelens/adapters/excel"
	"disputelens/domain/analysis"
	"disputelens/domain/core"
	"disputelens/internal"
	"disputelens/internal/render"
)

// fixtureSession is the state the backend keeps per uploaded dataset
type fixtureSession struct {
	uploads map[string]*excel.UploadInfo
	result  *analysis.Result
}

type fixtureServer struct {
	reader *excel.DataReader
	logger *internal.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[core.SessionID]*fixtureSession
}

func newFixtureServer(reader *excel.DataReader, logger *internal.Logger) *fixtureServer {
	return &fixtureServer{
		reader:   reader,
		logger:   logger.With("DevBackend"),
		now:      time.Now,
		sessions: make(map[core.SessionID]*fixtureSession),
	}
}

// Router mounts the backend endpoints
func (s *fixtureServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post(api.EndpointUpload, s.handleUpload)
	r.Get(api.EndpointFilterOptions, s.handleFilterOptions)
	r.Post(api.EndpointAnalyze, s.handleAnalyze)
	r.Post(api.EndpointGenerateReport, s.handleGenerateReport)
	r.Get(api.EndpointVisualization+"{name}", s.handleVisualization)
	r.Get(api.EndpointExportExcel, s.handleExportExcel)
	r.Get(api.EndpointClear, s.handleClear)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "service": "devbackend"})
	})
	return r
}

func (s *fixtureServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeFailure(w, http.StatusBadRequest, "message", fmt.Sprintf("Invalid upload: %v", err))
		return
	}

	uploads := make(map[string]*excel.UploadInfo, len(api.UploadFields))
	for _, field := range api.UploadFields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			writeFailure(w, http.StatusBadRequest, "message", fmt.Sprintf("Missing file: %s", field))
			return
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "message", fmt.Sprintf("Cannot read %s: %v", field, err))
			return
		}
		info, err := s.reader.CheckUploadReader(fh.Filename, f, fh.Size)
		f.Close()
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "message", err.Error())
			return
		}
		uploads[field] = info
	}

	id := core.SessionID(core.NewRequestID())
	s.mu.Lock()
	s.sessions[id] = &fixtureSession{uploads: uploads}
	s.mu.Unlock()

	s.logger.Info("session %s created from %d files", id, len(uploads))
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "sessionId": id})
}

func (s *fixtureServer) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookup(w, r.URL.Query().Get("sessionId")); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"filterOptions": sampleOptions(),
	})
}

func (s *fixtureServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var filters analysis.Filters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		writeFailure(w, http.StatusBadRequest, "error", fmt.Sprintf("Analysis error: %v", err))
		return
	}
	sess, ok := s.lookup(w, filters.SessionID.String())
	if !ok {
		return
	}
	if err := filters.Validate(); err != nil {
		writeFailure(w, http.StatusOK, "error", "Invalid selection. Please select all filter options.")
		return
	}
	if !contains(sampleOptions().Markets, filters.Market) {
		writeFailure(w, http.StatusOK, "error", "No matching records found for the selected filters.")
		return
	}

	result := sampleResult()
	s.mu.Lock()
	sess.result = result
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"data":           result.Rows,
		"stats":          result.Stats,
		"visualizations": result.Visualizations,
	})
}

func (s *fixtureServer) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		Format    string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "error", fmt.Sprintf("Error generating report: %v", err))
		return
	}
	result, ok := s.analyzed(w, req.SessionID)
	if !ok {
		return
	}
	if req.Format == "" {
		req.Format = string(analysis.FormatHTML)
	}
	format, err := analysis.ParseFormat(req.Format)
	if err != nil {
		writeFailure(w, http.StatusOK, "error", fmt.Sprintf("Error generating report: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  sampleReport(result, format),
		"format":  format,
	})
}

func (s *fixtureServer) handleVisualization(w http.ResponseWriter, r *http.Request) {
	result, ok := s.analyzed(w, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	fig, ok := result.Visualizations[name]
	if !ok {
		writeFailure(w, http.StatusOK, "error", fmt.Sprintf("Error creating visualization: unknown chart %q", name))
		return
	}
	// the real backend sends figures as JSON-encoded strings
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "plot": string(fig)})
}

func (s *fixtureServer) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	result, ok := s.analyzed(w, r.URL.Query().Get("sessionId"))
	if !ok {
		return
	}
	name := excel.ExportName(s.now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if err := excel.WriteRows(w, render.Project(result)); err != nil {
		s.logger.Error("export failed: %v", err)
	}
}

func (s *fixtureServer) handleClear(w http.ResponseWriter, r *http.Request) {
	id := core.SessionID(r.URL.Query().Get("sessionId"))
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.logger.Info("session %s cleared", id)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *fixtureServer) lookup(w http.ResponseWriter, raw string) (*fixtureSession, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[core.SessionID(raw)]
	s.mu.Unlock()
	if !ok {
		writeFailure(w, http.StatusOK, "error", "No uploaded files found. Please upload files first.")
		return nil, false
	}
	return sess, true
}

func (s *fixtureServer) analyzed(w http.ResponseWriter, raw string) (*analysis.Result, bool) {
	sess, ok := s.lookup(w, raw)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	result := sess.result
	s.mu.Unlock()
	if result == nil {
		writeFailure(w, http.StatusOK, "error", "No analysis results found. Please run analysis first.")
		return nil, false
	}
	return result, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, key, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, key: message})
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func sampleReport(result *analysis.Result, format analysis.Format) string {
	st := result.Stats
	lines := []string{
		fmt.Sprintf("Total records: %d", st.TotalRecords),
		fmt.Sprintf("Perfect matches: %d", st.PerfectMatches),
		fmt.Sprintf("Mismatches: %d", st.Mismatches),
		fmt.Sprintf("Missing deals: %d", st.MissingDeals),
		fmt.Sprintf("PPM only: %d", st.PPMOnly),
		fmt.Sprintf("Total variance: %s", render.FormatCurrency(st.TotalVariance)),
	}

	switch format {
	case analysis.FormatMarkdown:
		var b strings.Builder
		b.WriteString("# Dispute Analysis Report\n\n")
		for _, l := range lines {
			b.WriteString("- " + l + "\n")
		}
		return b.String()
	case analysis.FormatText:
		return "<pre>" + html.EscapeString("DISPUTE ANALYSIS REPORT\n\n"+strings.Join(lines, "\n")) + "</pre>"
	default:
		var b strings.Builder
		b.WriteString("<h1>Dispute Analysis Report</h1><ul>")
		for _, l := range lines {
			b.WriteString("<li>" + html.EscapeString(l) + "</li>")
		}
		b.WriteString("</ul>")
		return b.String()
	}
}
