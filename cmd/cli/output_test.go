package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"disputelens/domain/analysis"
	"disputelens/internal/errors"
	"disputelens/internal/render"
)

func TestRenderRows_Limit(t *testing.T) {
	view := render.Project(&analysis.Result{
		Rows: []analysis.Row{
			analysis.NewRow("Material", "M1", "Comment", "", "VAR", "0"),
			analysis.NewRow("Material", "M2", "Comment", "Missing Deal", "VAR", "-4.5"),
			analysis.NewRow("Material", "M3", "Comment", "PPM Only", "VAR", "2"),
		},
	})

	out := renderRows(view, 2)
	assert.Contains(t, out, "Material")
	assert.Contains(t, out, "M1")
	assert.Contains(t, out, "M2")
	assert.NotContains(t, out, "M3")
	assert.Contains(t, out, "showing 2 of 3 rows")

	all := renderRows(view, 0)
	assert.Contains(t, all, "M3")
	assert.NotContains(t, all, "showing")
}

func TestRenderError_UsesServerMessage(t *testing.T) {
	out := renderError(errors.Application("No data matches the selected filters"))
	assert.Contains(t, out, "[DANGER]")
	assert.Contains(t, out, "No data matches the selected filters")
}

func TestRenderOptions(t *testing.T) {
	out := renderOptions(&analysis.FilterOptions{
		Markets:  []string{"CA", "TX"},
		BrandsPk: []string{"Acme"},
		Years:    []int{2023, 2024},
		Months:   []string{"Jan"},
	})
	assert.Contains(t, out, "CA, TX")
	assert.Contains(t, out, "2023, 2024")
	assert.Contains(t, out, "Acme")
}
