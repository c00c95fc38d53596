package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disputelens/internal"
	"disputelens/ports"
)

func testOptions() ports.TableOptions {
	return ports.TableOptions{PageSizes: []int{10, 25, 50, -1}, PageLength: 10, Responsive: true}
}

func TestRegistry_RebindKeepsOneBinding(t *testing.T) {
	r := NewRegistry(internal.NewLogger(internal.LogLevelError))

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Bind("resultsTable", testOptions()))
		assert.Equal(t, 1, r.Bindings("resultsTable"))
	}
	assert.Equal(t, 2, r.Destroyed())
	assert.Equal(t, 0, r.Bindings("otherTable"))
}

func TestRegistry_BindRequiresElement(t *testing.T) {
	r := NewRegistry(nil)
	assert.Error(t, r.Bind("", testOptions()))
}

func TestInitScript(t *testing.T) {
	script, err := InitScript("resultsTable", testOptions())
	require.NoError(t, err)

	assert.Contains(t, script, `$("#resultsTable").DataTable(`)
	assert.Contains(t, script, `"destroy":true`)
	assert.Contains(t, script, `"pageLength":10`)
	assert.Contains(t, script, `"lengthMenu":[[10,25,50,-1],[10,25,50,"All"]]`)
	assert.Contains(t, script, `"responsive":true`)
}

func TestRegistry_Binding(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Bind("t", testOptions()))

	b, ok := r.Binding("t")
	require.True(t, ok)
	assert.Equal(t, "t", b.ElementID)
	assert.NotEmpty(t, b.Script)

	_, ok = r.Binding("missing")
	assert.False(t, ok)
}
