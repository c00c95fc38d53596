package ports

import "encoding/json"

// TableOptions configures client-side paging of a rendered table.
type TableOptions struct {
	PageSizes  []int // -1 means unbounded
	PageLength int
	Responsive bool
}

// TableWidget enhances a rendered table element with paging. Implementations
// must release any earlier binding on the same element before binding again.
type TableWidget interface {
	Bind(elementID string, opts TableOptions) error
}

// ChartPlotter draws one chart figure into a target element.
type ChartPlotter interface {
	Plot(targetID string, figure json.RawMessage) error
}
