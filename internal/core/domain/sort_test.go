package domain

import (
	"testing"
	"time"
)

func barcodes(records []LabResult) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Barcode)
	}
	return out
}

func assertOrder(t *testing.T, records []LabResult, want ...string) {
	t.Helper()
	got := barcodes(records)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSortRecordsByNumericColumnBlanksLast(t *testing.T) {
	records := []LabResult{
		{Barcode: "blank", TB1Nil: " "},
		{Barcode: "high", TB1Nil: ">10.0"},
		{Barcode: "low", TB1Nil: "0.2"},
		{Barcode: "bad", TB1Nil: "oops"},
	}

	SortRecords(records, SortByTB1Nil, false)
	assertOrder(t, records, "low", "high", "blank", "bad")

	SortRecords(records, SortByTB1Nil, true)
	assertOrder(t, records, "high", "low", "blank", "bad")
}

func TestSortRecordsByQFTCategoryOrder(t *testing.T) {
	records := []LabResult{
		{Barcode: "n", QFTResult: "NEG"},
		{Barcode: "u", QFTResult: "???"},
		{Barcode: "p", QFTResult: "POS"},
		{Barcode: "i", QFTResult: "IND"},
		{Barcode: "pf", QFTResult: "POS*"},
	}
	SortRecords(records, SortByQFTResult, false)
	assertOrder(t, records, "pf", "p", "i", "n", "u")
}

func TestSortRecordsByRequestedDateMissingLast(t *testing.T) {
	early := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	records := []LabResult{
		{Barcode: "none"},
		{Barcode: "late", RequestedDate: &late},
		{Barcode: "early", RequestedDate: &early},
	}

	SortRecords(records, SortByRequestedDate, false)
	assertOrder(t, records, "early", "late", "none")

	SortRecords(records, SortByRequestedDate, true)
	assertOrder(t, records, "late", "early", "none")
}

func TestSortRecordsByBarcodeStable(t *testing.T) {
	records := []LabResult{
		{Barcode: "B2"},
		{Barcode: "A1", NilResult: "first"},
		{Barcode: "A1", NilResult: "second"},
	}
	SortRecords(records, SortByBarcode, false)
	assertOrder(t, records, "A1", "A1", "B2")
	if records[0].NilResult != "first" {
		t.Fatalf("equal keys reordered: %+v", records[:2])
	}
}

func TestParseSortField(t *testing.T) {
	if _, ok := ParseSortField("tb1_nil"); !ok {
		t.Fatalf("expected tb1_nil to parse")
	}
	if _, ok := ParseSortField("drop table"); ok {
		t.Fatalf("expected invalid field to be rejected")
	}
}
