package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"disputelens/domain/analysis"
	"disputelens/domain/core"
	"disputelens/internal"
	"disputelens/internal/errors"
)

// RequestIDHeader carries a per-request correlation id to the backend
const RequestIDHeader = "X-Request-ID"

// Client talks to the analysis backend over HTTP and implements
// ports.AnalysisBackend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *internal.Logger
}

// NewClient creates a backend client. A zero Timeout leaves requests bounded
// only by the caller's context.
func NewClient(cfg ClientConfig, logger *internal.Logger) *Client {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Tracing {
		transport = otelhttp.NewTransport(transport)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: logger.With("BackendClient"),
	}
}

// Upload posts the workbooks as one multipart form and returns the session the
// backend created for them.
func (c *Client) Upload(ctx context.Context, files map[string]UploadFile) (core.SessionID, error) {
	if len(files) == 0 {
		return "", errors.InvalidInput("no files to upload")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := make([]string, 0, len(files))
	for field := range files {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		file := files[field]
		if file.Content == nil {
			return "", errors.InvalidInput(fmt.Sprintf("file %q has no content", field))
		}
		part, err := writer.CreateFormFile(field, file.Filename)
		if err != nil {
			return "", errors.Wrapf(err, "failed to create form part %s", field)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return "", errors.Wrapf(err, "failed to read %s", file.Filename)
		}
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finish multipart body")
	}

	payload, err := c.do(ctx, http.MethodPost, EndpointUpload, writer.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}

	id, err := core.ParseSessionID(payload.Get("sessionId").String())
	if err != nil {
		return "", malformed("upload response: no session id", err)
	}
	c.logger.Info("uploaded %d files, session %s", len(files), id)
	return id, nil
}

// FilterOptions fetches the selectable filter values for a session.
func (c *Client) FilterOptions(ctx context.Context, sessionID core.SessionID) (*analysis.FilterOptions, error) {
	endpoint := EndpointFilterOptions + "?sessionId=" + url.QueryEscape(sessionID.String())
	payload, err := c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}

	var opts analysis.FilterOptions
	raw := payload.Get("filterOptions")
	if raw.Exists() {
		if err := json.Unmarshal([]byte(raw.Raw), &opts); err != nil {
			return nil, malformed("filter options", err)
		}
	}
	return &opts, nil
}

// Analyze runs the reconciliation for a filter selection.
func (c *Client) Analyze(ctx context.Context, filters analysis.Filters) (*analysis.Result, error) {
	body, err := json.Marshal(filters)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode filters")
	}

	payload, err := c.do(ctx, http.MethodPost, EndpointAnalyze, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result analysis.Result
	if err := json.Unmarshal([]byte(payload.Raw), &result); err != nil {
		return nil, malformed("analysis result", err)
	}
	c.logger.Debug("analysis returned %d rows, %d charts", len(result.Rows), len(result.Visualizations))
	return &result, nil
}

// GenerateReport asks the backend for a report of the last analysis.
func (c *Client) GenerateReport(ctx context.Context, sessionID core.SessionID, format analysis.Format) (*analysis.Report, error) {
	body, err := json.Marshal(reportRequest{SessionID: sessionID, Format: format})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode report request")
	}

	payload, err := c.do(ctx, http.MethodPost, EndpointGenerateReport, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	report := &analysis.Report{
		Content: payload.Get("report").String(),
		Format:  format,
	}
	if f := payload.Get("format").String(); f != "" {
		if parsed, err := analysis.ParseFormat(f); err == nil {
			report.Format = parsed
		}
	}
	return report, nil
}

// Visualization fetches one chart figure. The backend may send the figure as
// an object or as a JSON-encoded string.
func (c *Client) Visualization(ctx context.Context, sessionID core.SessionID, name string) (json.RawMessage, error) {
	endpoint := EndpointVisualization + url.PathEscape(name) + "?sessionId=" + url.QueryEscape(sessionID.String())
	payload, err := c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}

	plot := payload.Get("plot")
	switch {
	case !plot.Exists():
		return nil, errors.Application(fmt.Sprintf("no figure returned for %s", name))
	case plot.Type == gjson.String:
		if !gjson.Valid(plot.Str) {
			return nil, errors.Application(fmt.Sprintf("figure for %s is not valid JSON", name))
		}
		return json.RawMessage(plot.Str), nil
	default:
		return json.RawMessage(plot.Raw), nil
	}
}

// ExportExcel downloads the backend's workbook of the last analysis into w
// and returns the suggested file name.
func (c *Client) ExportExcel(ctx context.Context, sessionID core.SessionID, w io.Writer) (string, error) {
	endpoint := EndpointExportExcel + "?sessionId=" + url.QueryEscape(sessionID.String())
	resp, err := c.send(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		data, _ := io.ReadAll(resp.Body)
		if _, err := decodeEnvelope(resp.StatusCode, data); err != nil {
			return "", err
		}
		return "", errors.Application(fmt.Sprintf("export failed with status %d", resp.StatusCode))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", errors.Transport(endpoint, err)
	}
	return attachmentName(resp.Header.Get("Content-Disposition"), DefaultExcelName), nil
}

// Clear drops the session's files on the backend. Any 2xx or redirect counts
// as success since the backend answers with a redirect to its index page.
func (c *Client) Clear(ctx context.Context, sessionID core.SessionID) error {
	endpoint := EndpointClear + "?sessionId=" + url.QueryEscape(sessionID.String())
	resp, err := c.send(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		if _, err := decodeEnvelope(resp.StatusCode, data); err != nil {
			return err
		}
		return errors.Application(fmt.Sprintf("clear failed with status %d", resp.StatusCode))
	}
	c.logger.Info("cleared session %s", sessionID)
	return nil
}

// do sends a request and decodes the {success, ...} envelope of the reply.
func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body io.Reader) (gjson.Result, error) {
	resp, err := c.send(ctx, method, endpoint, contentType, body)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Transport(endpoint, err)
	}
	payload, err := decodeEnvelope(resp.StatusCode, data)
	if err != nil {
		if errors.Is(err, errors.CodeTransport) {
			return gjson.Result{}, errors.Transport(endpoint, err)
		}
		c.logger.Warn("%s %s rejected: %s", method, endpoint, errors.Message(err))
		return gjson.Result{}, err
	}
	return payload, nil
}

func (c *Client) send(ctx context.Context, method, endpoint, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", endpoint)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := core.NewRequestID()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("%s %s failed: %v", method, endpoint, err)
		return nil, errors.Transport(endpoint, err)
	}
	c.logger.Debug("%s %s -> %d in %v (request %s)", method, endpoint, resp.StatusCode, time.Since(start), requestID)
	return resp, nil
}

// decodeEnvelope checks the success flag of a backend reply. Bodies that are
// not JSON objects count as transport failures; success=false becomes an
// application error carrying the server's message or error text.
func decodeEnvelope(status int, data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, errors.New(errors.CodeTransport,
			fmt.Sprintf("invalid JSON response (status %d)", status))
	}
	payload := gjson.ParseBytes(data)
	if !payload.IsObject() {
		return gjson.Result{}, errors.New(errors.CodeTransport,
			fmt.Sprintf("unexpected response shape (status %d)", status))
	}

	if payload.Get("success").Bool() {
		return payload, nil
	}

	message := payload.Get("message").String()
	if message == "" {
		message = payload.Get("error").String()
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return gjson.Result{}, errors.Application(message)
}

func malformed(what string, cause error) error {
	return &errors.AppError{Code: errors.CodeApplication, Message: "malformed " + what, Cause: cause}
}

func attachmentName(disposition, fallback string) string {
	const marker = "filename="
	i := strings.Index(disposition, marker)
	if i < 0 {
		return fallback
	}
	name := strings.Trim(strings.TrimSpace(disposition[i+len(marker):]), `"`)
	if j := strings.IndexByte(name, ';'); j >= 0 {
		name = strings.Trim(name[:j], `"`)
	}
	if name == "" {
		return fallback
	}
	return name
}
