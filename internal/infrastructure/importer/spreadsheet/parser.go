// Package spreadsheet parses analyzer result exports (Excel or CSV) into
// lab result records.
package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse dispatches on the upload's file extension.
func (p *Parser) Parse(_ context.Context, filename string, r io.Reader) ([]domain.LabResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readExcel(r)
	case ".csv", ".txt":
		return readCSV(r)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "import",
			fmt.Errorf("unsupported file type %q", filepath.Ext(filename)))
	}
}
