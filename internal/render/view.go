// Package render projects an analysis result into a view model. Projection is
// pure; binding the view to a table widget and chart plotter happens in
// Renderer.
package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"disputelens/domain/analysis"
)

// Row classes keyed by exact Comment value
const (
	ClassPerfectMatch  = "table-success"
	ClassPriceMismatch = "table-warning"
	ClassMissingDeal   = "table-danger"
	ClassPPMOnly       = "table-info"

	ClassVariancePositive = "variance-positive"
	ClassVarianceNegative = "variance-negative"
)

var rowClasses = map[string]string{
	analysis.CommentPerfectMatch:  ClassPerfectMatch,
	analysis.CommentPriceMismatch: ClassPriceMismatch,
	analysis.CommentMissingDeal:   ClassMissingDeal,
	analysis.CommentPPMOnly:       ClassPPMOnly,
}

// ChartNames are the charts the analyzer page has a slot for, in page order.
var ChartNames = []string{
	"match_distribution",
	"variance_by_type",
	"billback_vs_ppm",
	"top_materials",
	"variance_distribution",
}

// ChartTargetID is the fixed element id a chart is drawn into.
func ChartTargetID(name string) string {
	return name + "_chart"
}

// Summary holds the display strings of the fixed statistic slots
type Summary struct {
	TotalRecords     string
	PerfectMatches   string
	Mismatches       string
	MissingDeals     string
	PPMOnly          string
	PercentMatched   string
	TotalVariance    string
	AbsoluteVariance string
}

// Cell is one rendered table cell
type Cell struct {
	Key   string
	Value string
	Class string
}

// RowView is one rendered table row
type RowView struct {
	Class string
	Cells []Cell
}

// ChartView is a figure bound to its target element
type ChartView struct {
	Name     string
	TargetID string
	Figure   json.RawMessage
}

// View is everything the analyzer page shows for one result
type View struct {
	Summary Summary
	Columns []string
	Rows    []RowView
	Charts  []ChartView
}

// Project maps a result to its view. A nil result projects to an empty view.
func Project(result *analysis.Result) View {
	if result == nil {
		return View{Summary: ProjectSummary(analysis.Stats{})}
	}

	view := View{
		Summary: ProjectSummary(result.Stats),
		Rows:    make([]RowView, 0, len(result.Rows)),
	}

	seen := make(map[string]bool)
	for _, row := range result.Rows {
		for _, key := range row.Keys() {
			if !seen[key] {
				seen[key] = true
				view.Columns = append(view.Columns, key)
			}
		}
		view.Rows = append(view.Rows, ProjectRow(row))
	}

	for _, name := range ChartNames {
		figure, ok := result.Visualizations[name]
		if !ok || len(figure) == 0 {
			continue
		}
		view.Charts = append(view.Charts, ChartView{
			Name:     name,
			TargetID: ChartTargetID(name),
			Figure:   figure,
		})
	}

	return view
}

// ProjectSummary formats the statistics for their display slots.
func ProjectSummary(stats analysis.Stats) Summary {
	return Summary{
		TotalRecords:     strconv.Itoa(stats.TotalRecords),
		PerfectMatches:   strconv.Itoa(stats.PerfectMatches),
		Mismatches:       strconv.Itoa(stats.Mismatches),
		MissingDeals:     strconv.Itoa(stats.MissingDeals),
		PPMOnly:          strconv.Itoa(stats.PPMOnly),
		PercentMatched:   FormatPercent(stats.PercentMatched),
		TotalVariance:    FormatCurrency(stats.TotalVariance),
		AbsoluteVariance: FormatCurrency(stats.AbsoluteVariance),
	}
}

// ProjectRow renders one cell per key of the row in the row's own key order.
func ProjectRow(row analysis.Row) RowView {
	comment, _ := row.Get(analysis.KeyComment)
	view := RowView{
		Class: RowClass(comment),
		Cells: make([]Cell, 0, len(row.Fields)),
	}
	for _, f := range row.Fields {
		cell := Cell{Key: f.Key, Value: f.Value}
		if f.Key == analysis.KeyVariance {
			cell.Class = VarianceClass(f.Value)
		}
		view.Cells = append(view.Cells, cell)
	}
	return view
}

// RowClass returns the style class for a Comment value, or "" when the value
// is not one of the four recognised labels.
func RowClass(comment string) string {
	return rowClasses[comment]
}

// VarianceClass styles a VAR value by sign. Zero and unparseable values get
// no class.
func VarianceClass(value string) string {
	v, ok := ParseAmount(value)
	switch {
	case !ok:
		return ""
	case v > 0:
		return ClassVariancePositive
	case v < 0:
		return ClassVarianceNegative
	default:
		return ""
	}
}

// ParseAmount parses a numeric cell, accepting thousands separators as the
// backend formats amounts like "1,234.56".
func ParseAmount(value string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatPercent formats a percentage with one decimal, e.g. "80.0%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatCurrency formats an amount with two decimals, e.g. "$123.46".
func FormatCurrency(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
