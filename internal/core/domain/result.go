package domain

import (
	"strings"
	"time"
)

// QFT result categories as emitted by the instrument export.
const (
	QFTPositive      = "POS"
	QFTPositiveFlag  = "POS*"
	QFTNegative      = "NEG"
	QFTIndeterminate = "IND"
)

// LabResult is one sample row from an instrument export. Measured values stay
// in their raw string form ("0.35", ">10.0", blank) so comparison markers
// survive storage and rendering untouched; interpretation happens at the
// point of use.
type LabResult struct {
	Barcode       string     `json:"barcode"`
	NilResult     string     `json:"nil_result"`
	TB1Result     string     `json:"tb1_result"`
	TB2Result     string     `json:"tb2_result"`
	MitResult     string     `json:"mit_result"`
	TB1Nil        string     `json:"tb1_nil"`
	TB2Nil        string     `json:"tb2_nil"`
	MitNil        string     `json:"mit_nil"`
	QFTResult     string     `json:"qft_result"`
	RequestedDate *time.Time `json:"requested_date,omitempty"`
}

// Category returns the normalized QFT result category.
func (r LabResult) Category() string {
	return strings.ToUpper(strings.TrimSpace(r.QFTResult))
}

// IsPositive reports whether the record carries either positive category.
func (r LabResult) IsPositive() bool {
	c := r.Category()
	return c == QFTPositive || c == QFTPositiveFlag
}
