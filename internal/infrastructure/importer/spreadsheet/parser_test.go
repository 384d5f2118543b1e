package spreadsheet

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

func TestParseCSVSemicolonDelimited(t *testing.T) {
	input := strings.Join([]string{
		"Barcode;Nil_ReceivedResult;TB1_ReceivedResult;TB2_ReceivedResult;Mitogen_ReceivedResult;DifferenceTB1_Nil;DifferenceTB2_Nil;DifferenceMitogen_Nil;QFT_Result;RequestedDate",
		"B-100;0.08;2.13;1.94;9.84;2.05;1.86;9.76;POS;23/03/2026 08:15:00",
		"B-101;0.10;0.11;0.09;8.00;0.01;-0.01;7.90;NEG;",
		";;;;;;;;;",
	}, "\n")

	parser := NewParser()
	records, err := parser.Parse(context.Background(), "export.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Barcode != "B-100" || first.TB1Nil != "2.05" || first.QFTResult != "POS" {
		t.Fatalf("first record = %+v", first)
	}
	if first.RequestedDate == nil || first.RequestedDate.Day() != 23 || first.RequestedDate.Month() != 3 {
		t.Fatalf("requested date = %v", first.RequestedDate)
	}
	if records[1].RequestedDate != nil {
		t.Fatalf("blank date should stay nil, got %v", records[1].RequestedDate)
	}
}

func TestParseCSVCommaFallback(t *testing.T) {
	input := strings.Join([]string{
		"Barcode,Nil_Result,TB1_Result,TB2_Result,Mit_Result,TB1_Nil,TB2_Nil,Mit_Nil,QFT_Result",
		"B-1,0.08,2.13,1.94,9.84,2.05,1.86,9.76,POS",
	}, "\n")

	parser := NewParser()
	records, err := parser.Parse(context.Background(), "export.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 || records[0].MitNil != "9.76" {
		t.Fatalf("records = %+v", records)
	}
}

func TestParseCSVMitogenoAliases(t *testing.T) {
	input := strings.Join([]string{
		"Barcode;Nil_ReceivedResult;TB1_ReceivedResult;TB2_ReceivedResult;Mitogeno_ReceivedResult;DifferenceTB1_Nil;DifferenceTB2_Nil;DifferenceMitogeno_Nil;QFT_Result",
		"B-1;0.10;0.11;0.09;9.84;0.01;-0.01;9.76;NEG",
	}, "\n")

	parser := NewParser()
	records, err := parser.Parse(context.Background(), "export.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if records[0].MitResult != "9.84" || records[0].MitNil != "9.76" {
		t.Fatalf("record = %+v", records[0])
	}
}

func TestParseCSVAnalyzerHeaderRow(t *testing.T) {
	// The full header row as the LQS analyzer writes it, category column
	// named Quantiferon_Result.
	input := strings.Join([]string{
		"Barcode;RequestedDate;Nil_ReceivedResult;TB1_ReceivedResult;TB2_ReceivedResult;Mitogeno_ReceivedResult;DifferenceTB1_Nil;DifferenceTB2_Nil;DifferenceMitogen_Nil;Quantiferon_Result",
		"B-200;23/03/2026 08:15:00;0.08;2.13;1.94;9.84;2.05;1.86;9.76;POS",
	}, "\n")

	parser := NewParser()
	records, err := parser.Parse(context.Background(), "export.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].QFTResult != "POS" {
		t.Fatalf("QFTResult = %q, want POS", records[0].QFTResult)
	}
	if records[0].RequestedDate == nil {
		t.Fatalf("expected parsed requested date")
	}
}

func TestParseCSVMissingBarcodeColumn(t *testing.T) {
	input := "Nil_Result;QFT_Result\n0.08;POS\n"
	parser := NewParser()
	_, err := parser.Parse(context.Background(), "export.csv", strings.NewReader(input))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}

func TestParseCSVMissingResultColumns(t *testing.T) {
	// Barcode alone is not enough: a file without the measured value and
	// category columns must be rejected, not imported as blank records.
	input := "Barcode;RequestedDate\nB-1;23/03/2026 08:15:00\n"
	parser := NewParser()
	_, err := parser.Parse(context.Background(), "export.csv", strings.NewReader(input))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
	if !strings.Contains(err.Error(), "qft_result") {
		t.Fatalf("error should name the missing columns, got %v", err)
	}
}

func TestParseExcelWorkbook(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	header := []any{"Barcode", "Nil_ReceivedResult", "TB1_ReceivedResult", "TB2_ReceivedResult", "Mit_ReceivedResult", "DifferenceTB1_Nil", "DifferenceTB2_Nil", "DifferenceMit_Nil", "QFT_Result", "RequestedDate"}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("SetSheetRow() error = %v", err)
	}
	row := []any{"B-100", "0.08", "2.13", "1.94", "9.84", "2.05", "1.86", "9.76", "POS", "23/03/2026 08:15:00"}
	if err := wb.SetSheetRow(sheet, "A2", &row); err != nil {
		t.Fatalf("SetSheetRow() error = %v", err)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	parser := NewParser()
	records, err := parser.Parse(context.Background(), "export.xlsx", &buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Barcode != "B-100" || records[0].QFTResult != "POS" {
		t.Fatalf("record = %+v", records[0])
	}
	if records[0].RequestedDate == nil {
		t.Fatalf("expected parsed requested date")
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	parser := NewParser()
	_, err := parser.Parse(context.Background(), "export.pdf", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}
