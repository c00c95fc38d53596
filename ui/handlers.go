package ui

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"disputelens/adapters/api"
	"disputelens/adapters/chart"
	"disputelens/adapters/excel"
	"disputelens/domain/analysis"
	"disputelens/internal/errors"
	"disputelens/internal/export"
	"disputelens/internal/insights"
	"disputelens/internal/notify"
	"disputelens/internal/render"
	"disputelens/internal/session"
	"disputelens/ui/middleware"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleIndex serves the upload page
func (s *Server) handleIndex(c *gin.Context) {
	st := s.client(middleware.Client(c))
	st.mu.Lock()
	defer st.mu.Unlock()

	data := s.newPage("Upload", st)
	data.SessionID = st.sessionID.String()
	s.renderTemplate(c, "index.html", data)
}

// handleUpload checks the four workbooks, forwards them to the backend and
// sends the browser to the analyzer with the new session
func (s *Server) handleUpload(c *gin.Context) {
	ctx := c.Request.Context()
	client := middleware.Client(c)
	st := s.client(client)
	st.mu.Lock()
	defer st.mu.Unlock()

	fail := func(err error) {
		s.logger.Warn("upload failed: %v", err)
		st.board.Push(errors.Message(err), notify.SeverityDanger, s.now())
		c.Redirect(http.StatusSeeOther, "/")
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(errors.InvalidInput("Please select all four files before uploading."))
		return
	}

	files, closeAll, err := s.collectUploads(form)
	defer closeAll()
	if err != nil {
		fail(err)
		return
	}

	id, err := s.backend.Upload(ctx, files)
	if err != nil {
		fail(err)
		return
	}

	sc, _ := session.Resolve(ctx, "", client, s.store)
	if err := sc.Start(ctx, id); err != nil {
		fail(err)
		return
	}

	st.reset()
	st.sessionID = id
	st.board.Push("Files uploaded successfully.", notify.SeveritySuccess, s.now())
	c.Redirect(http.StatusSeeOther, session.AnalyzerURL(id))
}

// collectUploads pre-checks every required part and reopens it for sending
func (s *Server) collectUploads(form *multipart.Form) (map[string]api.UploadFile, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	var missing []string
	for _, field := range api.UploadFields {
		if len(form.File[field]) == 0 {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, closeAll, errors.InvalidInput(fmt.Sprintf("Please select all four files (missing: %s).", strings.Join(missing, ", ")))
	}

	files := make(map[string]api.UploadFile, len(api.UploadFields))
	for _, field := range api.UploadFields {
		header := form.File[field][0]

		check, err := header.Open()
		if err != nil {
			return nil, closeAll, errors.Wrapf(err, "failed to read %s", header.Filename)
		}
		_, err = s.reader.CheckUploadReader(header.Filename, check, header.Size)
		check.Close()
		if err != nil {
			return nil, closeAll, err
		}

		content, err := header.Open()
		if err != nil {
			return nil, closeAll, errors.Wrapf(err, "failed to read %s", header.Filename)
		}
		opened = append(opened, content)
		files[field] = api.UploadFile{Filename: header.Filename, Content: content}
	}
	return files, closeAll, nil
}

// handleAnalyzer serves the analyzer page for the resolved session
func (s *Server) handleAnalyzer(c *gin.Context) {
	ctx := c.Request.Context()
	st := s.client(middleware.Client(c))
	st.mu.Lock()
	defer st.mu.Unlock()

	sc, ok := s.resolveSession(c, st, c.Query(session.QueryParam))
	if !ok {
		return
	}

	data := s.newPage("Analyzer", st)
	data.SessionID = sc.ID().String()
	if err := s.loadOptions(ctx, st); err != nil {
		data.Alerts = append(data.Alerts, notify.FromError(err, s.now()))
	}
	s.fillAnalysis(data, st)
	s.renderTemplate(c, "analyzer.html", data)
}

// handleAnalyze runs the reconciliation for the submitted filters
func (s *Server) handleAnalyze(c *gin.Context) {
	ctx := c.Request.Context()
	st := s.client(middleware.Client(c))
	st.mu.Lock()
	defer st.mu.Unlock()

	sc, ok := s.resolveSession(c, st, c.PostForm(session.QueryParam))
	if !ok {
		return
	}

	year, _ := strconv.Atoi(strings.TrimSpace(c.PostForm("year")))
	filters := analysis.Filters{
		SessionID: sc.ID(),
		Market:    c.PostForm("market"),
		Brand:     c.PostForm("brand"),
		Year:      year,
		Month:     c.PostForm("month"),
	}

	data := s.newPage("Analyzer", st)
	data.SessionID = sc.ID().String()
	if err := s.loadOptions(ctx, st); err != nil {
		data.Alerts = append(data.Alerts, notify.FromError(err, s.now()))
	}
	st.filters = filters

	if err := filters.Validate(); err != nil {
		data.Alerts = append(data.Alerts, notify.New(err.Error(), notify.SeverityWarning, s.now()))
		s.fillAnalysis(data, st)
		s.renderTemplate(c, "analyzer.html", data)
		return
	}

	result, err := s.backend.Analyze(ctx, filters)
	if err != nil {
		data.Alerts = append(data.Alerts, notify.FromError(err, s.now()))
		s.fillAnalysis(data, st)
		s.renderTemplate(c, "analyzer.html", data)
		return
	}

	plotter := chart.NewScript()
	view, err := render.NewRenderer(st.table, plotter, s.logger).Show(result)
	if err != nil {
		data.Alerts = append(data.Alerts, notify.FromError(err, s.now()))
		s.fillAnalysis(data, st)
		s.renderTemplate(c, "analyzer.html", data)
		return
	}

	st.result = result
	st.view = view
	st.charts = plotter.JS()
	st.report = nil
	s.fillAnalysis(data, st)
	s.renderTemplate(c, "analyzer.html", data)
}

// handleReport asks the backend for a report of the current analysis
func (s *Server) handleReport(c *gin.Context) {
	ctx := c.Request.Context()
	st := s.client(middleware.Client(c))
	st.mu.Lock()
	defer st.mu.Unlock()

	sc, ok := s.resolveSession(c, st, c.PostForm(session.QueryParam))
	if !ok {
		return
	}

	data := s.newPage("Analyzer", st)
	data.SessionID = sc.ID().String()
	if err := s.loadOptions(ctx, st); err != nil {
		data.Alerts = append(data.Alerts, notify.FromError(err, s.now()))
	}

	format, err := analysis.ParseFormat(c.PostForm("format"))
	if err != nil {
		data.Alerts = append(data.Alerts, notify.FromError(errors.UnsupportedFormat(c.PostForm("format")), s.now()))
	} else if report, err := s.backend.GenerateReport(ctx, sc.ID(), format); err != nil {
		data.Alerts = append(data.Alerts, notify.FromError(err, s.now()))
	} else {
		st.report = report
	}

	s.fillAnalysis(data, st)
	s.renderTemplate(c, "analyzer.html", data)
}

// handleReportDownload exports the last generated report as a file
func (s *Server) handleReportDownload(c *gin.Context) {
	st := s.client(middleware.Client(c))
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.report == nil {
		st.board.Push("No report generated yet. Generate a report first.", notify.SeverityWarning, s.now())
		c.Redirect(http.StatusSeeOther, s.analyzerURL(st))
		return
	}

	file, err := export.Build(*st.report)
	if err != nil {
		st.board.Push(errors.Message(err), notify.SeverityDanger, s.now())
		c.Redirect(http.StatusSeeOther, s.analyzerURL(st))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	c.Data(http.StatusOK, file.MIMEType+"; charset=utf-8", file.Bytes())
}

// handleExportXLSX writes the rendered results table to a workbook
func (s *Server) handleExportXLSX(c *gin.Context) {
	st := s.client(middleware.Client(c))
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.view == nil {
		st.board.Push("No analysis results found. Please run analysis first.", notify.SeverityDanger, s.now())
		c.Redirect(http.StatusSeeOther, s.analyzerURL(st))
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteRows(&buf, *st.view); err != nil {
		s.logger.Error("excel export failed: %v", err)
		st.board.Push(fmt.Sprintf("Error exporting to Excel: %v", err), notify.SeverityDanger, s.now())
		c.Redirect(http.StatusSeeOther, s.analyzerURL(st))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, excel.ExportName(s.now())))
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// handleClear drops the session here and on the backend
func (s *Server) handleClear(c *gin.Context) {
	ctx := c.Request.Context()
	client := middleware.Client(c)
	st := s.client(client)
	st.mu.Lock()
	defer st.mu.Unlock()

	sc, err := session.Resolve(ctx, c.Query(session.QueryParam), client, s.store)
	if err == nil && sc.Has() {
		if err := s.backend.Clear(ctx, sc.ID()); err != nil {
			s.logger.Warn("backend clear for %s failed: %v", sc.ID(), err)
		}
	}
	if err := sc.Forget(ctx); err != nil {
		s.logger.Error("failed to forget session: %v", err)
	}

	st.reset()
	st.board.Push("Session cleared. You can upload new files.", notify.SeveritySuccess, s.now())
	c.Redirect(http.StatusSeeOther, "/")
}

// resolveSession finds the session for the request. Without one it renders
// the analyzer page with a danger alert that redirects to the upload page.
func (s *Server) resolveSession(c *gin.Context, st *clientState, queryValue string) (*session.Context, bool) {
	sc, err := session.Resolve(c.Request.Context(), queryValue, middleware.Client(c), s.store)
	if err == nil {
		if st.sessionID != sc.ID() {
			st.reset()
			st.sessionID = sc.ID()
		}
		return sc, true
	}

	data := s.newPage("Analyzer", st)
	data.Alerts = append(data.Alerts, notify.FromError(err, s.now()))
	if errors.Is(err, errors.CodeNoSession) {
		data.RedirectTo = "/"
		data.RedirectAfter = s.cfg.RedirectDelay
	}
	s.renderTemplate(c, "analyzer.html", data)
	return nil, false
}

func (s *Server) loadOptions(ctx context.Context, st *clientState) error {
	if st.options != nil {
		return nil
	}
	opts, err := s.backend.FilterOptions(ctx, st.sessionID)
	if err != nil {
		return err
	}
	st.options = opts
	return nil
}

// fillAnalysis copies the client's current analysis into the page
func (s *Server) fillAnalysis(data *pageData, st *clientState) {
	if st.options != nil {
		data.Options = st.options
	}
	data.Filters = st.filters

	if st.view != nil {
		data.View = st.view
		data.ChartScript = template.JS(st.charts)
		if b, ok := st.table.Binding(render.TableElementID); ok {
			data.TableScript = template.JS(b.Script)
		}
		if st.result != nil {
			if summary, err := insights.Summarize(st.result.Rows); err == nil {
				data.Insights = summary
			}
		}
	}

	if st.report != nil {
		data.ReportFormat = st.report.Format
		data.Report = template.HTML(export.Display(*st.report))
		if st.report.Format == analysis.FormatMarkdown {
			data.ReportPreview = template.HTML(export.PreviewMarkdown(st.report.Content))
		}
	}
}

func (s *Server) analyzerURL(st *clientState) string {
	if st.sessionID.IsEmpty() {
		return "/analyzer"
	}
	return session.AnalyzerURL(st.sessionID)
}
