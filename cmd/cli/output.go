package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"disputelens/domain/analysis"
	"disputelens/internal/insights"
	"disputelens/internal/notify"
	"disputelens/internal/render"
)

var (
	severityStyles = map[notify.Severity]lipgloss.Style{
		notify.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		notify.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		notify.SeverityDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}

	rowStyles = map[string]lipgloss.Style{
		render.ClassPerfectMatch:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		render.ClassPriceMismatch: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		render.ClassMissingDeal:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		render.ClassPPMOnly:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}

	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderAlert(a notify.Alert) string {
	style, ok := severityStyles[a.Severity]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(fmt.Sprintf("[%s] %s", strings.ToUpper(string(a.Severity)), a.Message))
}

func renderError(err error) string {
	return renderAlert(notify.FromError(err, nowFunc()))
}

func renderSummary(s render.Summary) string {
	line := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-18s", label)) + valueStyle.Render(value)
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		line("Total records", s.TotalRecords),
		line("Perfect matches", s.PerfectMatches),
		line("Mismatches", s.Mismatches),
		line("Missing deals", s.MissingDeals),
		line("PPM only", s.PPMOnly),
		line("Matched", s.PercentMatched),
		line("Total variance", s.TotalVariance),
		line("Absolute variance", s.AbsoluteVariance),
	))
}

// renderRows prints up to limit rows; limit <= 0 prints all of them.
func renderRows(view render.View, limit int) string {
	rows := view.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	index := make(map[string]int, len(view.Columns))
	for i, col := range view.Columns {
		index[col] = i
	}

	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(view.Columns))
		for _, cell := range row.Cells {
			cells[r][index[cell.Key]] = cell.Value
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(view.Columns...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(rows) {
				return cellStyle
			}
			if style, ok := rowStyles[rows[row].Class]; ok {
				return style.Padding(0, 1)
			}
			return cellStyle
		})

	out := t.String()
	if len(rows) < len(view.Rows) {
		out += "\n" + labelStyle.Render(fmt.Sprintf("showing %d of %d rows", len(rows), len(view.Rows)))
	}
	return out
}

func renderInsights(s *insights.Summary) string {
	return labelStyle.Render(fmt.Sprintf("Variance: mean %s, median %s, min %s, max %s, std dev %s over %d rows",
		render.FormatCurrency(s.Mean), render.FormatCurrency(s.Median),
		render.FormatCurrency(s.Min), render.FormatCurrency(s.Max),
		render.FormatCurrency(s.StdDev), s.Count))
}

func renderOptions(opts *analysis.FilterOptions) string {
	years := make([]string, len(opts.Years))
	for i, y := range opts.Years {
		years[i] = fmt.Sprint(y)
	}
	line := func(label string, values []string) string {
		return labelStyle.Render(fmt.Sprintf("%-8s", label)) + strings.Join(values, ", ")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		line("Markets", opts.Markets),
		line("Brands", opts.BrandsPk),
		line("Years", years),
		line("Months", opts.Months),
	)
}
