// Package chart implements ports.ChartPlotter for the web page (Plotly
// calls) and for the CLI (PNG files).
package chart

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Call is one recorded plot
type Call struct {
	TargetID string
	Figure   json.RawMessage
}

// Script records plots and emits them as Plotly.newPlot statements. Figures
// are forwarded without modification.
type Script struct {
	mu    sync.Mutex
	calls []Call
}

// NewScript creates an empty script plotter.
func NewScript() *Script {
	return &Script{}
}

// Plot records a figure for targetID.
func (s *Script) Plot(targetID string, figure json.RawMessage) error {
	if targetID == "" {
		return fmt.Errorf("chart target id is required")
	}
	if !gjson.ValidBytes(figure) {
		return fmt.Errorf("figure for %s is not valid JSON", targetID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{TargetID: targetID, Figure: figure})
	return nil
}

// Calls returns the recorded plots in call order.
func (s *Script) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// JS renders the recorded plots as page script.
func (s *Script) JS() string {
	var b strings.Builder
	for _, c := range s.Calls() {
		// keep "</script>" inside figure strings from closing the page script
		figure := strings.ReplaceAll(string(c.Figure), "</", `<\/`)
		fmt.Fprintf(&b, "Plotly.newPlot(%s, (%s).data, (%s).layout);\n",
			strconv.Quote(c.TargetID), figure, figure)
	}
	return b.String()
}
