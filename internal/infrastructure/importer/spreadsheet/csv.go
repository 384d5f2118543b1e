package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

// readCSV parses an analyzer CSV export. The analyzer writes semicolon
// delimited files; comma delimited ones are accepted as a fallback.
func readCSV(r io.Reader) ([]domain.LabResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	rows, err := parseCSV(data, ';')
	if err != nil || len(rows) == 0 || len(rows[0]) < 2 {
		if commaRows, commaErr := parseCSV(data, ','); commaErr == nil && len(commaRows) > 0 && len(commaRows[0]) >= 2 {
			rows = commaRows
		} else if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
	}
	return rowsToRecords(rows)
}

func parseCSV(data []byte, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func rowsToRecords(rows [][]string) ([]domain.LabResult, error) {
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import", fmt.Errorf("file has no header row"))
	}
	idx, missing := mapHeader(rows[0])
	if len(missing) > 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import",
			fmt.Errorf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	out := make([]domain.LabResult, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		rec := rowToRecord(idx, row)
		if rec.Barcode == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
