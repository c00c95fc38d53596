// Package insights summarises the VAR column of an analysis result.
package insights

import (
	"errors"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"disputelens/domain/analysis"
	"disputelens/internal/render"
)

// DefaultBins matches the bin count of the variance distribution chart
const DefaultBins = 20

// ErrNoValues is returned when no row carries a numeric VAR
var ErrNoValues = errors.New("no numeric variance values")

// Bin is one histogram bucket, [Lower, Upper)
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Summary describes the variance distribution
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	StdDev float64
	Bins   []Bin
}

// Values extracts the numeric VAR values of the rows, skipping rows where the
// value is missing or not a number.
func Values(rows []analysis.Row) []float64 {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		raw, ok := row.Get(analysis.KeyVariance)
		if !ok {
			continue
		}
		if v, ok := render.ParseAmount(raw); ok {
			values = append(values, v)
		}
	}
	return values
}

// Summarize computes the variance statistics of the rows.
func Summarize(rows []analysis.Row) (*Summary, error) {
	return SummarizeValues(Values(rows))
}

// SummarizeValues computes the statistics of raw variance values.
func SummarizeValues(values []float64) (*Summary, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	data := stats.Float64Data(values)

	mean, err := data.Mean()
	if err != nil {
		return nil, err
	}
	median, err := data.Median()
	if err != nil {
		return nil, err
	}
	min, err := data.Min()
	if err != nil {
		return nil, err
	}
	max, err := data.Max()
	if err != nil {
		return nil, err
	}
	stdDev, err := data.StandardDeviation()
	if err != nil {
		return nil, err
	}

	return &Summary{
		Count:  len(values),
		Mean:   mean,
		Median: median,
		Min:    min,
		Max:    max,
		StdDev: stdDev,
		Bins:   Histogram(values, DefaultBins),
	}, nil
}

// Histogram buckets values into n equal-width bins spanning their range.
// NaN and infinite values are ignored.
func Histogram(values []float64, n int) []Bin {
	if n <= 0 {
		return nil
	}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := make([]float64, n+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram requires every value to be below the last divider
	dividers[n] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	return bins
}
