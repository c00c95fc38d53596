package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"disputelens/adapters/api"
	"disputelens/adapters/excel"
	"disputelens/domain/analysis"
	"disputelens/internal"
	"disputelens/internal/errors"
)

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Material", "Amount"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"M-1", 10}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestBackend(t *testing.T) (*api.Client, *fixtureServer) {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	fixture := newFixtureServer(excel.NewDataReader(excel.DefaultExcelConfig()), logger)
	fixture.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	srv := httptest.NewServer(fixture.Router())
	t.Cleanup(srv.Close)
	return api.NewClient(api.ClientConfig{BaseURL: srv.URL}, logger), fixture
}

func uploadAll(t *testing.T, client *api.Client) analysis.Filters {
	t.Helper()
	data := workbook(t)
	files := map[string]api.UploadFile{}
	for _, field := range api.UploadFields {
		files[field] = api.UploadFile{Filename: field + ".xlsx", Content: bytes.NewReader(data)}
	}
	id, err := client.Upload(context.Background(), files)
	require.NoError(t, err)
	return analysis.Filters{SessionID: id, Market: "FL", Brand: "Acme Lager 12pk", Year: 2024, Month: "March"}
}

func TestDevBackend_RoundTrip(t *testing.T) {
	client, _ := newTestBackend(t)
	ctx := context.Background()
	filters := uploadAll(t, client)

	opts, err := client.FilterOptions(ctx, filters.SessionID)
	require.NoError(t, err)
	assert.Contains(t, opts.Markets, "FL")
	assert.Len(t, opts.Months, 12)

	result, err := client.Analyze(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Stats.TotalRecords)
	assert.Equal(t, 2, result.Stats.PerfectMatches)
	assert.Len(t, result.Visualizations, 5)
	assert.Equal(t, []string{"Material", "Brand + Pk size", "Billback Rate", "PPM Rate", "VAR", "Comment"}, result.Rows[0].Keys())

	fig, err := client.Visualization(ctx, filters.SessionID, "top_materials")
	require.NoError(t, err)
	assert.JSONEq(t, string(result.Visualizations["top_materials"]), string(fig))

	report, err := client.GenerateReport(ctx, filters.SessionID, analysis.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, analysis.FormatMarkdown, report.Format)
	assert.Contains(t, report.Content, "# Dispute Analysis Report")

	var buf bytes.Buffer
	name, err := client.ExportExcel(ctx, filters.SessionID, &buf)
	require.NoError(t, err)
	assert.Equal(t, "dispute_analysis_results_20240301_093000.xlsx", name)
	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	header, err := wb.GetCellValue(excel.ResultsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Material", header)

	require.NoError(t, client.Clear(ctx, filters.SessionID))
	_, err = client.FilterOptions(ctx, filters.SessionID)
	require.Error(t, err)
	assert.Equal(t, "No uploaded files found. Please upload files first.", errors.Message(err))
}

func TestDevBackend_ReportBeforeAnalysis(t *testing.T) {
	client, _ := newTestBackend(t)
	filters := uploadAll(t, client)

	_, err := client.GenerateReport(context.Background(), filters.SessionID, analysis.FormatHTML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeApplication))
	assert.Equal(t, "No analysis results found. Please run analysis first.", errors.Message(err))
}

func TestDevBackend_UnknownMarket(t *testing.T) {
	client, _ := newTestBackend(t)
	filters := uploadAll(t, client)
	filters.Market = "ZZ"

	_, err := client.Analyze(context.Background(), filters)
	require.Error(t, err)
	assert.Equal(t, "No matching records found for the selected filters.", errors.Message(err))
}

func TestDevBackend_RejectsWrongExtension(t *testing.T) {
	client, _ := newTestBackend(t)
	files := map[string]api.UploadFile{}
	for _, field := range api.UploadFields {
		files[field] = api.UploadFile{Filename: field + ".csv", Content: bytes.NewReader([]byte("a,b"))}
	}

	_, err := client.Upload(context.Background(), files)
	require.Error(t, err)
	assert.Contains(t, errors.Message(err), "Invalid file format")
}
