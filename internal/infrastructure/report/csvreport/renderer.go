// Package csvreport renders a session as a flat CSV file, the same column
// layout the analyzer tooling round-trips.
package csvreport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

const dateLayout = "2006-01-02 15:04:05"

var headers = []string{
	"Barcode", "Nil_Result", "TB1_Result", "TB2_Result", "Mit_Result",
	"TB1_Nil", "TB2_Nil", "Mit_Nil", "QFT_Result", "Comments", "Requested Date",
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Format() domain.ExportFormat {
	return domain.ExportCSV
}

func (r *Renderer) Render(_ context.Context, report domain.Report, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	decimals := report.Settings.DecimalPlaces
	for _, rec := range report.Records {
		requested := ""
		if rec.RequestedDate != nil {
			requested = rec.RequestedDate.Format(dateLayout)
		}
		row := []string{
			rec.Barcode,
			domain.FormatValue(rec.NilResult, decimals),
			domain.FormatValue(rec.TB1Result, decimals),
			domain.FormatValue(rec.TB2Result, decimals),
			domain.FormatValue(rec.MitResult, decimals),
			domain.FormatValue(rec.TB1Nil, decimals),
			domain.FormatValue(rec.TB2Nil, decimals),
			domain.FormatValue(rec.MitNil, decimals),
			rec.QFTResult,
			domain.Comment(rec),
			requested,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", rec.Barcode, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
