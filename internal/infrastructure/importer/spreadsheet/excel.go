package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

// readExcel parses the first sheet of an analyzer workbook.
func readExcel(r io.Reader) ([]domain.LabResult, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import", fmt.Errorf("open workbook: %w", err))
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import", fmt.Errorf("workbook has no sheets"))
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rowsToRecords(rows)
}
