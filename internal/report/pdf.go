package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the report with the core Arial font. Characters outside
// cp1252 (Devanagari, for instance) are replaced by the translator.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "CyberShikshaX Security Scan Report", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", r.GeneratedAt), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total scans: %d", r.TotalScans), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("High: %d | Medium: %d | Low: %d",
		r.RiskBreakdown.High, r.RiskBreakdown.Medium, r.RiskBreakdown.Low), "", 1, "", false, 0, "")
	pdf.Ln(5)

	if len(r.Scans) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "No scans yet.", "", 1, "", false, 0, "")
	}

	for _, s := range r.Scans {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(riskFill(s.RiskLevel))
		pdf.CellFormat(0, 7, fmt.Sprintf("%s scan - %s - %s risk", strings.ToUpper(s.Type), s.Status, s.RiskLevel), "", 1, "", true, 0, "")
		pdf.Ln(1)

		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Time: %s", s.Timestamp), "", 1, "", false, 0, "")
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Target: %s", s.Input)), "", "", false)
		for _, d := range s.Details {
			pdf.MultiCell(0, 4, tr(fmt.Sprintf("  - %s", d)), "", "", false)
		}
		pdf.Ln(3)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return nil
}

func riskFill(level string) (int, int, int) {
	switch level {
	case "High":
		return 250, 210, 210
	case "Medium":
		return 250, 235, 200
	default:
		return 215, 240, 215
	}
}
