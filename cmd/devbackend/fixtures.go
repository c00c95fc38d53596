package main

import (
	"encoding/json"
	"math"

	"disputelens/domain/analysis"
	"disputelens/internal/render"
)

func sampleOptions() analysis.FilterOptions {
	return analysis.FilterOptions{
		Markets:  []string{"FL", "GA", "TX"},
		BrandsPk: []string{"Acme Lager 12pk", "Acme Lager 24pk", "Northway IPA 6pk"},
		Years:    []int{2023, 2024},
		Months: []string{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
	}
}

var sampleRows = [][]string{
	{"M-1001", "Acme Lager 12pk", "12.50", "12.50", "0.00", ""},
	{"M-1002", "Acme Lager 12pk", "14.00", "12.75", "1,250.00", "Price mismatch"},
	{"M-1003", "Acme Lager 12pk", "9.90", "", "-310.40", "Missing Deal"},
	{"M-1004", "Acme Lager 12pk", "", "11.10", "", "PPM Only"},
	{"M-1005", "Acme Lager 12pk", "13.25", "13.25", "0.00", ""},
	{"M-1006", "Acme Lager 12pk", "15.00", "14.20", "88.00", "Price mismatch"},
}

func sampleResult() *analysis.Result {
	rows := make([]analysis.Row, len(sampleRows))
	counts := map[string]int{}
	var total, absolute float64
	materials := make([]string, 0, len(sampleRows))
	variances := make([]float64, 0, len(sampleRows))

	for i, r := range sampleRows {
		rows[i] = analysis.NewRow(
			analysis.KeyMaterial, r[0],
			"Brand + Pk size", r[1],
			"Billback Rate", r[2],
			"PPM Rate", r[3],
			analysis.KeyVariance, r[4],
			analysis.KeyComment, r[5],
		)
		counts[r[5]]++
		if v, ok := render.ParseAmount(r[4]); ok {
			total += v
			absolute += math.Abs(v)
			materials = append(materials, r[0])
			variances = append(variances, v)
		}
	}

	n := len(rows)
	stats := analysis.Stats{
		TotalRecords:     n,
		PerfectMatches:   counts[analysis.CommentPerfectMatch],
		Mismatches:       counts[analysis.CommentPriceMismatch],
		MissingDeals:     counts[analysis.CommentMissingDeal],
		PPMOnly:          counts[analysis.CommentPPMOnly],
		TotalVariance:    total,
		AbsoluteVariance: absolute,
		PercentMatched:   float64(counts[analysis.CommentPerfectMatch]) / float64(n) * 100,
	}

	labels := []string{"Perfect Match", "Price mismatch", "Missing Deal", "PPM Only"}
	values := []int{stats.PerfectMatches, stats.Mismatches, stats.MissingDeals, stats.PPMOnly}

	return &analysis.Result{
		Stats: stats,
		Rows:  rows,
		Visualizations: analysis.Visualizations{
			"match_distribution": figure("Match Distribution", map[string]interface{}{
				"type": "pie", "labels": labels, "values": values,
			}),
			"variance_by_type": figure("Variance by Type", map[string]interface{}{
				"type": "bar", "x": []string{"Price mismatch", "Missing Deal"}, "y": []float64{1338, -310.40},
			}),
			"billback_vs_ppm": figure("Billback vs PPM", map[string]interface{}{
				"type": "bar", "x": []string{"Billback", "PPM"}, "y": []float64{64.65, 63.80},
			}),
			"top_materials": figure("Top Materials by Variance", map[string]interface{}{
				"type": "bar", "x": materials, "y": variances,
			}),
			"variance_distribution": figure("Variance Distribution", map[string]interface{}{
				"type": "histogram", "x": variances,
			}),
		},
	}
}

func figure(title string, trace map[string]interface{}) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{
		"data":   []interface{}{trace},
		"layout": map[string]interface{}{"title": map[string]string{"text": title}},
	})
	return data
}
