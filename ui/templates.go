package ui

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"disputelens/adapters/api"
	"disputelens/domain/analysis"
	"disputelens/internal/insights"
	"disputelens/internal/notify"
	"disputelens/internal/render"
)

type uploadField struct {
	Name  string
	Label string
}

var uploadLabels = map[string]string{
	api.FieldBillback: "Billback file",
	api.FieldItemRef:  "Item reference file",
	api.FieldPPM:      "PPM file",
	api.FieldStates:   "States file",
}

// pageData is the template model shared by both pages
type pageData struct {
	Title          string
	Alerts         []notify.Alert
	AlertTTLMillis int64
	RedirectTo     string
	RedirectAfter  time.Duration

	UploadFields []uploadField

	SessionID string
	Options   *analysis.FilterOptions
	Filters   analysis.Filters

	View        *render.View
	TableID     string
	TableScript template.JS
	ChartScript template.JS
	ChartNames  []string
	Insights    *insights.Summary

	Formats       []analysis.Format
	ReportFormat  analysis.Format
	Report        template.HTML
	ReportPreview template.HTML
}

func (s *Server) newPage(title string, st *clientState) *pageData {
	fields := make([]uploadField, len(api.UploadFields))
	for i, name := range api.UploadFields {
		fields[i] = uploadField{Name: name, Label: uploadLabels[name]}
	}
	return &pageData{
		Title:          title,
		Alerts:         st.board.Drain(s.now()),
		AlertTTLMillis: s.cfg.AlertTTL.Milliseconds(),
		UploadFields:   fields,
		Options:        &analysis.FilterOptions{},
		TableID:        render.TableElementID,
		ChartNames:     render.ChartNames,
		Formats:        analysis.Formats,
		ReportFormat:   analysis.FormatHTML,
	}
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	// Render to a buffer first so errors don't leave a half-written page
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("Template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	content := buf.String()
	if !strings.Contains(content, "</html>") {
		log.Printf("WARNING: Rendered template %s appears truncated - missing </html> tag", templateName)
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("Error writing template response: %v", err)
	}
}
