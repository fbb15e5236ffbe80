package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"github.com/cybershikshax/shiksha-cli/internal/shared/security"
)

// TimeLayout is ISO-8601 with millisecond precision, always in UTC.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Format selects the export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatPDF, FormatMarkdown:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %s (must be json, md, or pdf)", sharedErrors.ErrInvalidFormat, s)
}

//go:embed templates/report.md
var templateFS embed.FS

var markdownTemplate = template.Must(
	template.New("report.md").Funcs(template.FuncMap{"join": strings.Join}).ParseFS(templateFS, "templates/report.md"),
)

// RiskBreakdown counts scans per risk level.
type RiskBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Scan is the exported form of one result.
type Scan struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Input     string   `json:"input"`
	RiskLevel string   `json:"riskLevel"`
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	Details   []string `json:"details"`
}

// Report is the downloadable document.
type Report struct {
	GeneratedAt   string        `json:"generatedAt"`
	TotalScans    int           `json:"totalScans"`
	RiskBreakdown RiskBreakdown `json:"riskBreakdown"`
	Scans         []Scan        `json:"scans"`
}

// Build assembles a report from results, keeping their order.
func Build(results []*scan.Result, now time.Time) Report {
	summary := scan.Summarize(results)
	r := Report{
		GeneratedAt: formatTime(now),
		TotalScans:  summary.Total,
		RiskBreakdown: RiskBreakdown{
			High:   summary.High,
			Medium: summary.Medium,
			Low:    summary.Low,
		},
		Scans: make([]Scan, 0, len(results)),
	}
	for _, res := range results {
		r.Scans = append(r.Scans, ScanOf(res))
	}
	return r
}

// ScanOf converts one result to its exported form.
func ScanOf(res *scan.Result) Scan {
	details := res.Details()
	if details == nil {
		details = []string{}
	}
	return Scan{
		ID:        res.ID(),
		Type:      string(res.Kind()),
		Input:     res.Input(),
		RiskLevel: string(res.RiskLevel()),
		Status:    string(res.Status()),
		Timestamp: formatTime(res.Timestamp()),
		Details:   details,
	}
}

// Filename returns report-<unix-ms>.<ext>.
func Filename(now time.Time, format Format) string {
	return fmt.Sprintf("report-%d.%s", now.UnixMilli(), format)
}

// WriteJSON encodes the report with two-space indentation.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}
	return nil
}

// ReadJSON decodes a previously exported JSON report.
func ReadJSON(r io.Reader) (Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return Report{}, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	if rep.Scans == nil {
		rep.Scans = []Scan{}
	}
	return rep, nil
}

// GeneratedTime parses the report's generatedAt stamp.
func (r Report) GeneratedTime() (time.Time, error) {
	t, err := time.Parse(TimeLayout, r.GeneratedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: generatedAt: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	return t, nil
}

// Results rebuilds the scans of a decoded report. Unknown kinds, risk
// levels or statuses and malformed timestamps are rejected.
func Results(rep Report) ([]*scan.Result, error) {
	results := make([]*scan.Result, 0, len(rep.Scans))
	for i, s := range rep.Scans {
		kind, err := scan.ParseKind(s.Type)
		if err != nil {
			return nil, fmt.Errorf("scan %d: %w", i, err)
		}
		risk, err := scan.ParseRiskLevel(s.RiskLevel)
		if err != nil {
			return nil, fmt.Errorf("scan %d: %w", i, err)
		}
		status, err := scan.ParseStatus(s.Status)
		if err != nil {
			return nil, fmt.Errorf("scan %d: %w", i, err)
		}
		at, err := time.Parse(TimeLayout, s.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan %d: %w: timestamp: %v", i, sharedErrors.ErrDeserializationFailed, err)
		}
		results = append(results, scan.Reconstruct(s.ID, kind, s.Input, risk, status, at, s.Details))
	}
	return results, nil
}

// WriteMarkdown renders the report as a Markdown summary.
func WriteMarkdown(w io.Writer, r Report) error {
	if err := markdownTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("render markdown report: %w", err)
	}
	return nil
}

// Encode renders the report in the requested format.
func Encode(r Report, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJSON:
		err = WriteJSON(&buf, r)
	case FormatMarkdown:
		err = WriteMarkdown(&buf, r)
	case FormatPDF:
		err = WritePDF(&buf, r)
	default:
		err = fmt.Errorf("%w: %s", sharedErrors.ErrInvalidFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export writes the report for results into dir and returns the file path.
func Export(dir string, results []*scan.Result, format Format, now time.Time) (string, error) {
	content, err := Encode(Build(results, now), format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path, err := security.FileWithin(dir, Filename(now, format))
	if err != nil {
		return "", fmt.Errorf("resolve report path: %w", err)
	}
	if err := os.WriteFile(path, content, consts.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
