package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"disputelens/domain/core"
)

// Comment labels the backend assigns to analysed rows
const (
	CommentPerfectMatch  = ""
	CommentPriceMismatch = "Price mismatch"
	CommentMissingDeal   = "Missing Deal"
	CommentPPMOnly       = "PPM Only"
)

// Well-known row keys
const (
	KeyComment  = "Comment"
	KeyVariance = "VAR"
	KeyMaterial = "Material"
)

// Stats holds the aggregate counts computed by the backend. The client only
// displays them.
type Stats struct {
	TotalRecords     int     `json:"total_records"`
	PerfectMatches   int     `json:"perfect_matches"`
	Mismatches       int     `json:"mismatches"`
	MissingDeals     int     `json:"missing_deals"`
	PPMOnly          int     `json:"ppm_only"`
	TotalVariance    float64 `json:"total_variance"`
	AbsoluteVariance float64 `json:"absolute_variance"`
	PercentMatched   float64 `json:"percent_matched"`
}

// Visualizations maps a chart name to a plotting-library figure (data traces
// plus layout). The figures are opaque and forwarded verbatim.
type Visualizations map[string]json.RawMessage

// Result is one analysis payload as returned by POST /analyze.
type Result struct {
	Stats          Stats          `json:"stats"`
	Rows           []Row          `json:"data"`
	Visualizations Visualizations `json:"visualizations"`
}

// FilterOptions lists the selectable values for an uploaded dataset.
// brands_pk keeps the backend's field name.
type FilterOptions struct {
	Markets  []string `json:"markets"`
	BrandsPk []string `json:"brands_pk"`
	Years    []int    `json:"years"`
	Months   []string `json:"months"`
}

// Filters is the request body of POST /analyze.
type Filters struct {
	SessionID core.SessionID `json:"sessionId"`
	Market    string         `json:"market"`
	Brand     string         `json:"brand"`
	Year      int            `json:"year"`
	Month     string         `json:"month"`
}

// Validate checks that every selector has a value.
func (f Filters) Validate() error {
	var missing []string
	if f.SessionID.IsEmpty() {
		missing = append(missing, "session")
	}
	if strings.TrimSpace(f.Market) == "" {
		missing = append(missing, "market")
	}
	if strings.TrimSpace(f.Brand) == "" {
		missing = append(missing, "brand")
	}
	if f.Year == 0 {
		missing = append(missing, "year")
	}
	if strings.TrimSpace(f.Month) == "" {
		missing = append(missing, "month")
	}
	if len(missing) > 0 {
		return fmt.Errorf("Invalid selection. Please select all filter options (missing: %s).", strings.Join(missing, ", "))
	}
	return nil
}

// Format is a report output format
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists the supported report formats in menu order.
var Formats = []Format{FormatHTML, FormatMarkdown, FormatText}

// ParseFormat accepts html, markdown (or md) and text (or txt).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format: %q", s)
	}
}

// Report is a generated summary report as returned by POST /generate-report.
type Report struct {
	Content string `json:"report"`
	Format  Format `json:"format"`
}
