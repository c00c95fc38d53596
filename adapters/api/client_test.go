package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disputelens/domain/analysis"
	"disputelens/domain/core"
	"disputelens/internal"
	"disputelens/internal/errors"
)

func newTestClient(t *testing.T, r chi.Router) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL + "/"}, internal.NewLogger(internal.LogLevelError))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_Upload(t *testing.T) {
	r := chi.NewRouter()
	var gotParts []string
	var gotRequestID string
	r.Post("/upload", func(w http.ResponseWriter, req *http.Request) {
		gotRequestID = req.Header.Get(RequestIDHeader)
		require.NoError(t, req.ParseMultipartForm(1<<20))
		for field, headers := range req.MultipartForm.File {
			gotParts = append(gotParts, field+"="+headers[0].Filename)
		}
		writeJSON(w, http.StatusOK, `{"success": true, "sessionId": "sess-42"}`)
	})
	client := newTestClient(t, r)

	files := map[string]UploadFile{}
	for _, field := range UploadFields {
		files[field] = UploadFile{Filename: field + ".xlsx", Content: strings.NewReader("data")}
	}

	id, err := client.Upload(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, core.SessionID("sess-42"), id)
	assert.ElementsMatch(t, []string{
		"billback=billback.xlsx", "item_ref=item_ref.xlsx", "ppm=ppm.xlsx", "states=states.xlsx",
	}, gotParts)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_UploadRejected(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/upload", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"success": false, "message": "Missing file: ppm"}`)
	})
	client := newTestClient(t, r)

	_, err := client.Upload(context.Background(), map[string]UploadFile{
		FieldBillback: {Filename: "b.xlsx", Content: strings.NewReader("x")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeApplication))
	assert.Equal(t, "Missing file: ppm", errors.Message(err))
}

func TestClient_UploadNoFiles(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:0"}, nil)
	_, err := client.Upload(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestClient_FilterOptions(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/filter-options", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "sess 1", req.URL.Query().Get("sessionId"))
		writeJSON(w, http.StatusOK, `{"success": true, "filterOptions": {
			"markets": ["CA", "NY"], "brands_pk": ["Acme"], "years": [2023, 2024], "months": ["Jan"]}}`)
	})
	client := newTestClient(t, r)

	opts, err := client.FilterOptions(context.Background(), core.SessionID("sess 1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "NY"}, opts.Markets)
	assert.Equal(t, []string{"Acme"}, opts.BrandsPk)
	assert.Equal(t, []int{2023, 2024}, opts.Years)
	assert.Equal(t, []string{"Jan"}, opts.Months)
}

func TestClient_Analyze(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "s1", body["sessionId"])
		assert.Equal(t, "CA", body["market"])
		assert.Equal(t, float64(2024), body["year"])
		writeJSON(w, http.StatusOK, `{"success": true,
			"stats": {"total_records": 2, "perfect_matches": 1, "percent_matched": 50, "total_variance": -3.5},
			"data": [{"Material": "M1", "VAR": "0", "Comment": ""}, {"Material": "M2", "VAR": "-3.5", "Comment": "Price mismatch"}],
			"visualizations": {"match_distribution": {"data": [], "layout": {}}}}`)
	})
	client := newTestClient(t, r)

	result, err := client.Analyze(context.Background(), analysis.Filters{
		SessionID: "s1", Market: "CA", Brand: "Acme", Year: 2024, Month: "Jan",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.TotalRecords)
	assert.InDelta(t, -3.5, result.Stats.TotalVariance, 1e-9)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, []string{"Material", "VAR", "Comment"}, result.Rows[1].Keys())
	assert.Contains(t, result.Visualizations, "match_distribution")
}

func TestClient_AnalyzeErrorText(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": false, "error": "No data for selection"}`)
	})
	client := newTestClient(t, r)

	_, err := client.Analyze(context.Background(), analysis.Filters{SessionID: "s1"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeApplication, errors.GetCode(err))
	assert.Equal(t, "No data for selection", errors.Message(err))
}

func TestClient_TransportFailures(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/generate-report", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	client := newTestClient(t, r)

	_, err := client.GenerateReport(context.Background(), "s1", analysis.FormatHTML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeTransport))

	unreachable := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1"}, internal.NewLogger(internal.LogLevelError))
	_, err = unreachable.FilterOptions(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeTransport))
}

func TestClient_GenerateReport(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/generate-report", func(w http.ResponseWriter, req *http.Request) {
		var body reportRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, analysis.FormatMarkdown, body.Format)
		writeJSON(w, http.StatusOK, `{"success": true, "report": "<pre># Report</pre>", "format": "markdown"}`)
	})
	client := newTestClient(t, r)

	report, err := client.GenerateReport(context.Background(), "s1", analysis.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "<pre># Report</pre>", report.Content)
	assert.Equal(t, analysis.FormatMarkdown, report.Format)
}

func TestClient_Visualization(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/get_visualization/{name}", func(w http.ResponseWriter, req *http.Request) {
		switch chi.URLParam(req, "name") {
		case "top_materials":
			writeJSON(w, http.StatusOK, `{"success": true, "plot": "{\"data\":[],\"layout\":{}}"}`)
		case "match_distribution":
			writeJSON(w, http.StatusOK, `{"success": true, "plot": {"data": [1]}}`)
		default:
			writeJSON(w, http.StatusOK, `{"success": false, "error": "Unknown visualization"}`)
		}
	})
	client := newTestClient(t, r)
	ctx := context.Background()

	fig, err := client.Visualization(ctx, "s1", "top_materials")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"layout":{}}`, string(fig))

	fig, err = client.Visualization(ctx, "s1", "match_distribution")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1]}`, string(fig))

	_, err = client.Visualization(ctx, "s1", "nope")
	assert.Equal(t, "Unknown visualization", errors.Message(err))
}

func TestClient_ExportExcel(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/export_excel", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="dispute_analysis_results_20240101_120000.xlsx"`)
		_, _ = w.Write([]byte("PK\x03\x04"))
	})
	client := newTestClient(t, r)

	var buf bytes.Buffer
	name, err := client.ExportExcel(context.Background(), "s1", &buf)
	require.NoError(t, err)
	assert.Equal(t, "dispute_analysis_results_20240101_120000.xlsx", name)
	assert.Equal(t, "PK\x03\x04", buf.String())
}

func TestClient_Clear(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, "<html>index</html>")
	})
	r.Get("/clear", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/", http.StatusFound)
	})
	client := newTestClient(t, r)

	assert.NoError(t, client.Clear(context.Background(), "s1"))
}

func TestAttachmentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`attachment; filename="a.xlsx"`, "a.xlsx"},
		{`attachment; filename=b.xlsx; size=3`, "b.xlsx"},
		{`attachment`, DefaultExcelName},
		{``, DefaultExcelName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, attachmentName(tt.in, DefaultExcelName), tt.in)
	}
}
