// Package export turns a generated report into a downloadable file and into
// the markup shown in the report pane.
package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"disputelens/domain/analysis"
	"disputelens/internal/errors"
)

// BaseName is the file name of every exported report, before the extension
const BaseName = "dispute_analysis_report"

// File is a report ready to be saved
type File struct {
	Name     string
	MIMEType string
	Content  string
}

// Bytes returns the file content.
func (f File) Bytes() []byte {
	return []byte(f.Content)
}

type fileType struct {
	ext  string
	mime string
}

var fileTypes = map[analysis.Format]fileType{
	analysis.FormatHTML:     {ext: "html", mime: "text/html"},
	analysis.FormatMarkdown: {ext: "md", mime: "text/markdown"},
	analysis.FormatText:     {ext: "txt", mime: "text/plain"},
}

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Dispute Analysis Report</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; color: #212529; }
h1, h2, h3 { color: #2c3e50; }
table { border-collapse: collapse; width: 100%%; margin-bottom: 20px; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
.positive { color: #28a745; }
.negative { color: #dc3545; }
</style>
</head>
<body>
%s
</body>
</html>
`

// FileName returns the download name for a format.
func FileName(format analysis.Format) (string, error) {
	ft, ok := fileTypes[format]
	if !ok {
		return "", errors.UnsupportedFormat(string(format))
	}
	return BaseName + "." + ft.ext, nil
}

// Build packages a report for download. HTML reports are wrapped in a
// standalone document; markdown and text reports lose the <pre> wrapper they
// are displayed in. Either raw or display content is accepted.
func Build(report analysis.Report) (File, error) {
	ft, ok := fileTypes[report.Format]
	if !ok {
		return File{}, errors.UnsupportedFormat(string(report.Format))
	}

	content := report.Content
	if report.Format == analysis.FormatHTML {
		content = fmt.Sprintf(documentTemplate, content)
	} else {
		content = StripPre(content)
	}

	return File{
		Name:     BaseName + "." + ft.ext,
		MIMEType: ft.mime,
		Content:  content,
	}, nil
}

// Display returns the markup for the report pane: HTML reports as-is, the
// others escaped inside <pre>.
func Display(report analysis.Report) string {
	if report.Format == analysis.FormatHTML {
		return report.Content
	}
	if isPreWrapped(report.Content) {
		return report.Content
	}
	return "<pre>" + html.EscapeString(report.Content) + "</pre>"
}

// StripPre removes a surrounding <pre> element and unescapes its text.
// Content without the wrapper is returned unchanged.
func StripPre(content string) string {
	if !isPreWrapped(content) {
		return content
	}
	trimmed := strings.TrimSpace(content)
	inner := trimmed[len("<pre>") : len(trimmed)-len("</pre>")]
	return html.UnescapeString(inner)
}

func isPreWrapped(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "<pre>") && strings.HasSuffix(trimmed, "</pre>")
}

// PreviewMarkdown renders a markdown report as HTML for previewing.
func PreviewMarkdown(content string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(StripPre(content)))
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return string(markdown.Render(doc, renderer))
}
