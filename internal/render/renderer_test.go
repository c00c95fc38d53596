package render

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"disputelens/domain/analysis"
	"disputelens/internal"
	"disputelens/ports"
)

type mockTable struct {
	mock.Mock
}

func (m *mockTable) Bind(elementID string, opts ports.TableOptions) error {
	args := m.Called(elementID, opts)
	return args.Error(0)
}

type mockPlotter struct {
	mock.Mock
}

func (m *mockPlotter) Plot(targetID string, figure json.RawMessage) error {
	args := m.Called(targetID, figure)
	return args.Error(0)
}

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Stats: analysis.Stats{TotalRecords: 2, PercentMatched: 50},
		Rows: []analysis.Row{
			analysis.NewRow("Material", "M1", "VAR", "0", "Comment", ""),
			analysis.NewRow("Material", "M2", "VAR", "3", "Comment", "Price mismatch"),
		},
		Visualizations: analysis.Visualizations{
			"variance_by_type": json.RawMessage(`{"data":[]}`),
		},
	}
}

func TestRenderer_Show(t *testing.T) {
	table := new(mockTable)
	plotter := new(mockPlotter)
	table.On("Bind", TableElementID, DefaultTableOptions()).Return(nil).Twice()
	plotter.On("Plot", "variance_by_type_chart", json.RawMessage(`{"data":[]}`)).Return(nil).Twice()

	r := NewRenderer(table, plotter, internal.NewLogger(internal.LogLevelError))

	first, err := r.Show(sampleResult())
	require.NoError(t, err)
	second, err := r.Show(sampleResult())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Rows, 2)
	table.AssertExpectations(t)
	plotter.AssertExpectations(t)
}

func TestRenderer_ShowBindError(t *testing.T) {
	table := new(mockTable)
	plotter := new(mockPlotter)
	table.On("Bind", TableElementID, DefaultTableOptions()).Return(errors.New("widget missing"))

	r := NewRenderer(table, plotter, nil)
	_, err := r.Show(sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widget missing")
	plotter.AssertNotCalled(t, "Plot", mock.Anything, mock.Anything)
}

func TestDefaultTableOptions(t *testing.T) {
	opts := DefaultTableOptions()
	assert.Equal(t, []int{10, 25, 50, -1}, opts.PageSizes)
	assert.Equal(t, 10, opts.PageLength)
	assert.True(t, opts.Responsive)
}
