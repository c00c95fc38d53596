package render

import (
	"fmt"

	"disputelens/domain/analysis"
	"disputelens/internal"
	"disputelens/ports"
)

// TableElementID is the element the results table is rendered into
const TableElementID = "resultsTable"

// DefaultTableOptions pages the results table at 10/25/50/all rows.
func DefaultTableOptions() ports.TableOptions {
	return ports.TableOptions{
		PageSizes:  []int{10, 25, 50, -1},
		PageLength: 10,
		Responsive: true,
	}
}

// Renderer shows analysis results through a table widget and a chart plotter.
type Renderer struct {
	table   ports.TableWidget
	charts  ports.ChartPlotter
	options ports.TableOptions
	logger  *internal.Logger
}

// NewRenderer creates a renderer with the default table options.
func NewRenderer(table ports.TableWidget, charts ports.ChartPlotter, logger *internal.Logger) *Renderer {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Renderer{
		table:   table,
		charts:  charts,
		options: DefaultTableOptions(),
		logger:  logger.With("Renderer"),
	}
}

// Show projects the result, rebinds the table and plots every chart the
// result carries. Rendering the same result twice yields the same view and
// leaves exactly one table binding.
func (r *Renderer) Show(result *analysis.Result) (*View, error) {
	view := Project(result)

	if err := r.table.Bind(TableElementID, r.options); err != nil {
		return nil, fmt.Errorf("bind results table: %w", err)
	}

	for _, chart := range view.Charts {
		if err := r.charts.Plot(chart.TargetID, chart.Figure); err != nil {
			return nil, fmt.Errorf("plot %s: %w", chart.Name, err)
		}
	}

	r.logger.Debug("rendered %d rows, %d columns, %d charts", len(view.Rows), len(view.Columns), len(view.Charts))
	return &view, nil
}
