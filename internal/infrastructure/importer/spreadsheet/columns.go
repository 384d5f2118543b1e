package spreadsheet

import (
	"strings"
	"time"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

// Canonical column keys. Instrument exports carry verbose headers that vary
// between analyzer software versions; headerAliases maps every known variant
// onto one key.
const (
	colBarcode       = "barcode"
	colNilResult     = "nil_result"
	colTB1Result     = "tb1_result"
	colTB2Result     = "tb2_result"
	colMitResult     = "mit_result"
	colTB1Nil        = "tb1_nil"
	colTB2Nil        = "tb2_nil"
	colMitNil        = "mit_nil"
	colQFTResult     = "qft_result"
	colRequestedDate = "requested_date"
)

var headerAliases = map[string]string{
	"barcode":                 colBarcode,
	"nil_receivedresult":      colNilResult,
	"tb1_receivedresult":      colTB1Result,
	"tb2_receivedresult":      colTB2Result,
	"mit_receivedresult":      colMitResult,
	"mitogen_receivedresult":  colMitResult,
	"mitogeno_receivedresult": colMitResult,
	"differencetb1_nil":       colTB1Nil,
	"differencetb2_nil":       colTB2Nil,
	"differencemit_nil":       colMitNil,
	"differencemitogen_nil":   colMitNil,
	"differencemitogeno_nil":  colMitNil,
	"quantiferon_result":      colQFTResult,
	"qft_result":              colQFTResult,
	"requesteddate":           colRequestedDate,

	// Re-imports of our own exports use the canonical names directly.
	"nil_result":     colNilResult,
	"tb1_result":     colTB1Result,
	"tb2_result":     colTB2Result,
	"mit_result":     colMitResult,
	"tb1_nil":        colTB1Nil,
	"tb2_nil":        colTB2Nil,
	"mit_nil":        colMitNil,
	"requested_date": colRequestedDate,
}

// dateLayouts lists accepted requested-date formats, analyzer export format
// first.
var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2006-01-02",
}

// requiredColumns must all resolve after alias mapping; a file missing any of
// them is rejected rather than imported as blank records. The requested date
// is the one optional column.
var requiredColumns = []string{
	colBarcode,
	colNilResult,
	colTB1Result,
	colTB2Result,
	colMitResult,
	colTB1Nil,
	colTB2Nil,
	colMitNil,
	colQFTResult,
}

// mapHeader resolves a raw header row to canonical-key -> column-index and
// reports which required columns are absent.
func mapHeader(header []string) (map[string]int, []string) {
	idx := make(map[string]int, len(header))
	for i, raw := range header {
		key := strings.ToLower(strings.TrimSpace(raw))
		if canonical, ok := headerAliases[key]; ok {
			if _, taken := idx[canonical]; !taken {
				idx[canonical] = i
			}
		}
	}

	var missing []string
	for _, key := range requiredColumns {
		if _, ok := idx[key]; !ok {
			missing = append(missing, key)
		}
	}
	return idx, missing
}

// rowToRecord builds a record from one data row. Missing cells stay empty
// strings; the classifier and formatter deal with them downstream.
func rowToRecord(idx map[string]int, row []string) domain.LabResult {
	cell := func(key string) string {
		i, ok := idx[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := domain.LabResult{
		Barcode:   cell(colBarcode),
		NilResult: cell(colNilResult),
		TB1Result: cell(colTB1Result),
		TB2Result: cell(colTB2Result),
		MitResult: cell(colMitResult),
		TB1Nil:    cell(colTB1Nil),
		TB2Nil:    cell(colTB2Nil),
		MitNil:    cell(colMitNil),
		QFTResult: cell(colQFTResult),
	}
	if raw := cell(colRequestedDate); raw != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				rec.RequestedDate = &t
				break
			}
		}
	}
	return rec
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
