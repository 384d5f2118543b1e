// Package pdfreport renders a session as a paginated PDF report with a
// summary and sign-off page, the layout used for printed lab review.
package pdfreport

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

const (
	title       = "LIASION® QuantiFERON®"
	rowsPerPage = 21
	rowHeight   = 24
	dateLayout  = "02/01/2006 15:04:05"
)

var (
	colWidths = []float64{30, 80, 60, 70, 70, 70, 60, 60, 60, 70, 80}
	headers   = []string{
		"No.", "Barcode", "Nil_Result", "TB1_Result", "TB2_Result", "Mit_Result",
		"TB1_Nil", "TB2_Nil", "Mit_Nil", "QFT_Result", "Comment",
	}
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Format() domain.ExportFormat {
	return domain.ExportPDF
}

func (r *Renderer) Render(_ context.Context, report domain.Report, w io.Writer) error {
	pdf := fpdf.New("L", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, rec := range report.Records {
		if i%rowsPerPage == 0 {
			newTablePage(pdf, tr, report.SessionName)
		}
		writeRow(pdf, i+1, rec, report.Settings)
	}
	writeSummaryPage(pdf, tr, report)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func newTablePage(pdf *fpdf.Fpdf, tr func(string) string, sessionName string) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 22, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 16, tr(sessionName), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(217, 217, 217)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], rowHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func writeRow(pdf *fpdf.Fpdf, n int, rec domain.LabResult, settings domain.DisplaySettings) {
	comment := domain.Comment(rec)
	decimals := settings.DecimalPlaces

	cells := []string{
		strconv.Itoa(n),
		rec.Barcode,
		domain.FormatValue(rec.NilResult, decimals),
		domain.FormatValue(rec.TB1Result, decimals),
		domain.FormatValue(rec.TB2Result, decimals),
		domain.FormatValue(rec.MitResult, decimals),
		domain.FormatValue(rec.TB1Nil, decimals),
		domain.FormatValue(rec.TB2Nil, decimals),
		domain.FormatValue(rec.MitNil, decimals),
	}
	pdf.SetTextColor(0, 0, 0)
	for i, c := range cells {
		pdf.CellFormat(colWidths[i], rowHeight, c, "1", 0, "C", false, 0, "")
	}

	bg, text, highlight := categoryColors(rec, comment, settings)
	if highlight {
		br, bgc, bb := hexToRGB(bg)
		pdf.SetFillColor(br, bgc, bb)
		trc, tg, tb := hexToRGB(text)
		pdf.SetTextColor(trc, tg, tb)
	}
	pdf.CellFormat(colWidths[9], rowHeight, rec.QFTResult, "1", 0, "C", highlight, 0, "")

	pdf.SetTextColor(85, 85, 85)
	pdf.CellFormat(colWidths[10], rowHeight, comment, "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
}

// categoryColors mirrors the on-screen highlighting, weak positives first.
func categoryColors(rec domain.LabResult, comment string, settings domain.DisplaySettings) (bg, text string, ok bool) {
	switch {
	case strings.Contains(comment, "WP"):
		return settings.WPBackground, settings.WPText, true
	case rec.IsPositive():
		return settings.PosBackground, settings.PosText, true
	case rec.Category() == domain.QFTNegative:
		return settings.NegBackground, settings.NegText, true
	case rec.Category() == domain.QFTIndeterminate:
		return settings.IndBackground, settings.IndText, true
	default:
		return "", "", false
	}
}

func writeSummaryPage(pdf *fpdf.Fpdf, tr func(string) string, report domain.Report) {
	summary := domain.Summarize(report.Records)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 22, tr(title+" - Summary"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 16, tr(report.SessionName), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	line := func(label string, value int) {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(260, 20, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(80, 20, strconv.Itoa(value), "1", 1, "C", false, 0, "")
	}

	line("Total Samples", summary.TotalSamples)
	line("Positive (Total)", summary.StrongPositive.Total)
	line("Positive (TB1)", summary.StrongPositive.TB1)
	line("Positive (TB2)", summary.StrongPositive.TB2)
	line("Positive (Both)", summary.StrongPositive.Both)
	line("Weak Positive (Total)", summary.WeakPositive.Total)
	line("Weak Positive (TB1)", summary.WeakPositive.TB1)
	line("Weak Positive (TB2)", summary.WeakPositive.TB2)
	line("Weak Positive (Both)", summary.WeakPositive.Both)
	line("Negative", summary.Negative)
	line("Indeterminate (Total)", summary.Indeterminate.Total)
	line("Indeterminate (High Nil)", summary.Indeterminate.HighNil)
	line("Indeterminate (Low Mit)", summary.Indeterminate.LowMit)

	pdf.Ln(30)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 20, "Generated: "+report.GeneratedAt.Format(dateLayout), "", 1, "L", false, 0, "")
	pdf.Ln(20)
	pdf.CellFormat(0, 20, "Reviewed by: ______________________________", "", 1, "L", false, 0, "")
}

func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}
