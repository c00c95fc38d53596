package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
	gochart "github.com/wcharczuk/go-chart/v2"
	"golang.org/x/sync/errgroup"

	"disputelens/internal"
	"disputelens/internal/insights"
)

const (
	pngWidth  = 1024
	pngHeight = 512
)

// PNG renders the first trace of a figure as a bar chart image. Bar traces
// use x/y, pie traces use labels/values; other trace kinds are rejected.
type PNG struct {
	dir    string
	mu     sync.Mutex
	files  map[string]string
	logger *internal.Logger
}

// NewPNG creates a plotter that writes <targetID>.png files into dir.
func NewPNG(dir string, logger *internal.Logger) *PNG {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &PNG{dir: dir, files: make(map[string]string), logger: logger.With("ChartPNG")}
}

// Plot renders a figure and writes it to disk.
func (p *PNG) Plot(targetID string, figure json.RawMessage) error {
	data, err := RenderPNG(figure)
	if err != nil {
		return fmt.Errorf("render %s: %w", targetID, err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	path := filepath.Join(p.dir, targetID+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	p.mu.Lock()
	p.files[targetID] = path
	p.mu.Unlock()
	p.logger.Debug("wrote %s (%d bytes)", path, len(data))
	return nil
}

// Files maps target ids to the images written so far.
func (p *PNG) Files() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.files))
	for k, v := range p.files {
		out[k] = v
	}
	return out
}

// PlotAll renders several figures concurrently. A figure that fails to render
// is logged and skipped; an error is returned only when the context ends or
// no figure could be rendered.
func (p *PNG) PlotAll(ctx context.Context, figures map[string]json.RawMessage) error {
	var failed atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	for targetID, figure := range figures {
		targetID, figure := targetID, figure
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.Plot(targetID, figure); err != nil {
				p.logger.Warn("skipping %s: %v", targetID, err)
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := int(failed.Load()); n > 0 && n == len(figures) {
		return fmt.Errorf("none of %d charts could be rendered", n)
	}
	return nil
}

// RenderPNG converts a figure to PNG bytes.
func RenderPNG(figure json.RawMessage) ([]byte, error) {
	if !gjson.ValidBytes(figure) {
		return nil, fmt.Errorf("figure is not valid JSON")
	}
	fig := gjson.ParseBytes(figure)
	trace := fig.Get("data.0")
	if !trace.Exists() {
		return nil, fmt.Errorf("figure has no traces")
	}

	bars, err := traceBars(trace)
	if err != nil {
		return nil, err
	}

	ch := gochart.BarChart{
		Title:      fig.Get("layout.title.text").String(),
		Width:      pngWidth,
		Height:     pngHeight,
		BarWidth:   barWidth(len(bars)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 48}},
		Bars:       bars,
		YAxis:      gochart.YAxis{Range: valueRange(bars)},
	}
	if title := fig.Get("layout.title"); ch.Title == "" && title.Type == gjson.String {
		ch.Title = title.Str
	}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func traceBars(trace gjson.Result) ([]gochart.Value, error) {
	var labels, values []gjson.Result
	switch kind := trace.Get("type").String(); kind {
	case "", "bar":
		labels, values = trace.Get("x").Array(), trace.Get("y").Array()
	case "histogram":
		return histogramBars(trace.Get("x").Array())
	case "pie":
		labels, values = trace.Get("labels").Array(), trace.Get("values").Array()
	default:
		return nil, fmt.Errorf("unsupported trace type %q", kind)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("trace has no values")
	}

	bars := make([]gochart.Value, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i].String()
		}
		bars = append(bars, gochart.Value{Label: label, Value: v.Float()})
	}
	return bars, nil
}

func histogramBars(xs []gjson.Result) ([]gochart.Value, error) {
	raw := make([]float64, 0, len(xs))
	for _, x := range xs {
		raw = append(raw, x.Float())
	}
	bins := insights.Histogram(raw, insights.DefaultBins)
	if len(bins) == 0 {
		return nil, fmt.Errorf("trace has no values")
	}

	bars := make([]gochart.Value, len(bins))
	for i, b := range bins {
		bars[i] = gochart.Value{Label: fmt.Sprintf("%.0f", b.Lower), Value: float64(b.Count)}
	}
	return bars, nil
}

// valueRange spans the bar values and zero so equal values still give the
// axis a non-empty range.
func valueRange(bars []gochart.Value) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if lo == hi {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

func barWidth(n int) int {
	w := (pngWidth - 100) / (n * 2)
	switch {
	case w < 4:
		return 4
	case w > 80:
		return 80
	default:
		return w
	}
}
