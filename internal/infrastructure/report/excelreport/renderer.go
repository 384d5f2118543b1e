// Package excelreport renders a session as a styled workbook mirroring the
// on-screen result table.
package excelreport

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

const (
	sheetName  = "Results"
	dateLayout = "02/01/2006 15:04:05"

	headerFill  = "D9D9D9"
	commentText = "555555"
)

var headers = []string{
	"Barcode", "Nil_Result", "TB1_Result", "TB2_Result", "Mit_Result",
	"TB1_Nil", "TB2_Nil", "Mit_Nil", "QFT_Result", "Comments", "Requested Date",
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Format() domain.ExportFormat {
	return domain.ExportExcel
}

func (r *Renderer) Render(_ context.Context, report domain.Report, w io.Writer) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeHeader(wb); err != nil {
		return err
	}

	styles, err := newStyleSet(wb, report.Settings)
	if err != nil {
		return err
	}
	for i, rec := range report.Records {
		if err := writeRecord(wb, styles, i+2, rec, report.Settings.DecimalPlaces); err != nil {
			return err
		}
	}

	if err := applyLayout(wb); err != nil {
		return err
	}
	if err := wb.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(wb *excelize.File) error {
	style, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := wb.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", h, err)
		}
		if err := wb.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return fmt.Errorf("style header %s: %w", h, err)
		}
	}
	return nil
}

// styleSet caches the per-category cell styles so each is registered once
// per workbook.
type styleSet struct {
	qft     map[string]int
	comment int
}

func newStyleSet(wb *excelize.File, settings domain.DisplaySettings) (*styleSet, error) {
	s := &styleSet{qft: map[string]int{}}

	register := func(key, bg, text string) error {
		style, err := wb.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Color: stripHash(text)},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripHash(bg)}},
		})
		if err != nil {
			return fmt.Errorf("style %s: %w", key, err)
		}
		s.qft[key] = style
		return nil
	}
	if err := register("pos", settings.PosBackground, settings.PosText); err != nil {
		return nil, err
	}
	if err := register("neg", settings.NegBackground, settings.NegText); err != nil {
		return nil, err
	}
	if err := register("ind", settings.IndBackground, settings.IndText); err != nil {
		return nil, err
	}
	if err := register("wp", settings.WPBackground, settings.WPText); err != nil {
		return nil, err
	}

	comment, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true, Color: commentText},
	})
	if err != nil {
		return nil, fmt.Errorf("comment style: %w", err)
	}
	s.comment = comment
	return s, nil
}

// forRecord picks the QFT cell style: weak positives win over the base
// category so they stand out in review.
func (s *styleSet) forRecord(rec domain.LabResult, comment string) (int, bool) {
	switch {
	case strings.Contains(comment, "WP"):
		return s.qft["wp"], true
	case rec.IsPositive():
		return s.qft["pos"], true
	case rec.Category() == domain.QFTNegative:
		return s.qft["neg"], true
	case rec.Category() == domain.QFTIndeterminate:
		return s.qft["ind"], true
	default:
		return 0, false
	}
}

func writeRecord(wb *excelize.File, styles *styleSet, row int, rec domain.LabResult, decimals string) error {
	comment := domain.Comment(rec)

	values := []string{
		rec.Barcode,
		domain.FormatValue(rec.NilResult, decimals),
		domain.FormatValue(rec.TB1Result, decimals),
		domain.FormatValue(rec.TB2Result, decimals),
		domain.FormatValue(rec.MitResult, decimals),
		domain.FormatValue(rec.TB1Nil, decimals),
		domain.FormatValue(rec.TB2Nil, decimals),
		domain.FormatValue(rec.MitNil, decimals),
	}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if i > 0 {
			// Measured values become real numbers unless censored (< or >)
			// or blank, so spreadsheet formulas keep working.
			if num, ok := asNumber(v); ok {
				if err := wb.SetCellValue(sheetName, cell, num); err != nil {
					return fmt.Errorf("set cell %s: %w", cell, err)
				}
				continue
			}
		}
		if err := wb.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}

	qftCell, err := excelize.CoordinatesToCellName(9, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := wb.SetCellValue(sheetName, qftCell, rec.QFTResult); err != nil {
		return fmt.Errorf("set qft cell: %w", err)
	}
	if style, ok := styles.forRecord(rec, comment); ok {
		if err := wb.SetCellStyle(sheetName, qftCell, qftCell, style); err != nil {
			return fmt.Errorf("style qft cell: %w", err)
		}
	}

	commentCell, err := excelize.CoordinatesToCellName(10, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := wb.SetCellValue(sheetName, commentCell, comment); err != nil {
		return fmt.Errorf("set comment cell: %w", err)
	}
	if err := wb.SetCellStyle(sheetName, commentCell, commentCell, styles.comment); err != nil {
		return fmt.Errorf("style comment cell: %w", err)
	}

	if rec.RequestedDate != nil {
		dateCell, err := excelize.CoordinatesToCellName(11, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := wb.SetCellValue(sheetName, dateCell, rec.RequestedDate.Format(dateLayout)); err != nil {
			return fmt.Errorf("set date cell: %w", err)
		}
	}
	return nil
}

func applyLayout(wb *excelize.File) error {
	if err := wb.SetColWidth(sheetName, "A", "A", 12); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}
	if err := wb.SetColWidth(sheetName, "B", "I", 10); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}
	if err := wb.SetColWidth(sheetName, "J", "J", 15); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}
	if err := wb.SetColWidth(sheetName, "K", "K", 20); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}
	err := wb.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

func asNumber(v string) (float64, bool) {
	if v == "" || strings.TrimSpace(v) == "" {
		return 0, false
	}
	if strings.ContainsAny(v, "<>") {
		return 0, false
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

func stripHash(hex string) string {
	return strings.TrimPrefix(hex, "#")
}
