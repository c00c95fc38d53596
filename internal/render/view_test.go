package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disputelens/domain/analysis"
)

func TestRowClass(t *testing.T) {
	tests := []struct {
		comment string
		want    string
	}{
		{"", ClassPerfectMatch},
		{"Price mismatch", ClassPriceMismatch},
		{"Missing Deal", ClassMissingDeal},
		{"PPM Only", ClassPPMOnly},
		{"price mismatch", ""},
		{"Something else", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RowClass(tt.comment), "comment %q", tt.comment)
	}
}

func TestProjectRow_MissingCommentIsPerfectMatch(t *testing.T) {
	view := ProjectRow(analysis.NewRow("Material", "M1", "VAR", "1"))
	assert.Equal(t, ClassPerfectMatch, view.Class)
}

func TestVarianceClass(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"12.5", ClassVariancePositive},
		{"1,234.56", ClassVariancePositive},
		{"-0.01", ClassVarianceNegative},
		{"-1,000", ClassVarianceNegative},
		{"0", ""},
		{"0.00", ""},
		{"", ""},
		{"n/a", ""},
		{"inf", ""},
		{"-Infinity", ""},
		{"NaN", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VarianceClass(tt.value), "value %q", tt.value)
	}
}

func TestProjectSummary_Formatting(t *testing.T) {
	s := ProjectSummary(analysis.Stats{
		TotalRecords:     5,
		PerfectMatches:   4,
		PercentMatched:   80,
		TotalVariance:    123.456,
		AbsoluteVariance: 0,
	})
	assert.Equal(t, "5", s.TotalRecords)
	assert.Equal(t, "4", s.PerfectMatches)
	assert.Equal(t, "80.0%", s.PercentMatched)
	assert.Equal(t, "$123.46", s.TotalVariance)
	assert.Equal(t, "$0.00", s.AbsoluteVariance)
}

func TestProject_RowsAndColumns(t *testing.T) {
	result := &analysis.Result{
		Rows: []analysis.Row{
			analysis.NewRow("Material", "M1", "VAR", "5", "Comment", ""),
			analysis.NewRow("Material", "M2", "VAR", "-2", "Comment", "Missing Deal", "Extra", "x"),
			analysis.NewRow("Material", "M3", "Comment", "Other"),
		},
	}

	view := Project(result)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, []string{"Material", "VAR", "Comment", "Extra"}, view.Columns)

	assert.Equal(t, ClassPerfectMatch, view.Rows[0].Class)
	assert.Equal(t, ClassMissingDeal, view.Rows[1].Class)
	assert.Equal(t, "", view.Rows[2].Class)

	assert.Equal(t, ClassVariancePositive, view.Rows[0].Cells[1].Class)
	assert.Equal(t, ClassVarianceNegative, view.Rows[1].Cells[1].Class)
	assert.Empty(t, view.Rows[0].Cells[0].Class)

	for i, row := range result.Rows {
		require.Len(t, view.Rows[i].Cells, len(row.Fields))
		for j, f := range row.Fields {
			assert.Equal(t, f.Key, view.Rows[i].Cells[j].Key)
			assert.Equal(t, f.Value, view.Rows[i].Cells[j].Value)
		}
	}
}

func TestProject_ChartsSkipAbsentNames(t *testing.T) {
	result := &analysis.Result{
		Visualizations: analysis.Visualizations{
			"top_materials":      json.RawMessage(`{"data":[]}`),
			"match_distribution": json.RawMessage(`{"data":[]}`),
			"unknown_chart":      json.RawMessage(`{"data":[]}`),
		},
	}

	view := Project(result)
	require.Len(t, view.Charts, 2)
	assert.Equal(t, "match_distribution", view.Charts[0].Name)
	assert.Equal(t, "match_distribution_chart", view.Charts[0].TargetID)
	assert.Equal(t, "top_materials_chart", view.Charts[1].TargetID)
}

func TestProject_Nil(t *testing.T) {
	view := Project(nil)
	assert.Empty(t, view.Rows)
	assert.Equal(t, "0.0%", view.Summary.PercentMatched)
}

func TestProject_Idempotent(t *testing.T) {
	result := &analysis.Result{
		Stats: analysis.Stats{TotalRecords: 1},
		Rows:  []analysis.Row{analysis.NewRow("VAR", "1", "Comment", "PPM Only")},
	}
	assert.Equal(t, Project(result), Project(result))
}
