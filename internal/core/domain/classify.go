package domain

import (
	"strconv"
	"strings"
)

// Interpretive thresholds from the assay criteria. The exact values matter:
// annotations feed patient-facing reports.
const (
	strongPositiveCutoff = 1.0
	weakPositiveFloor    = 0.35
	highNilCeiling       = 8.0
	lowMitogenFloor      = 0.5
)

// Annotations produced by Comment.
const (
	CommentWPBoth  = "WP (Both)"
	CommentWPTB1   = "WP (TB1)"
	CommentWPTB2   = "WP (TB2)"
	CommentHighNil = "High Nil"
	CommentLowMit  = "Low Mit"
	CommentError   = "Error"
)

// Comment classifies a lab result into its annotation string. It is a total
// function: malformed numeric fields yield CommentError, unknown categories
// yield the empty annotation, and it never panics or mutates its input.
//
// Precedence is fixed: strong positive beats weak positive, and High Nil
// beats Low Mit, so a record is never double-flagged.
func Comment(r LabResult) string {
	nilVal, err := parseMeasurement(r.NilResult)
	if err != nil {
		return CommentError
	}
	tb1Nil, err := parseMeasurement(r.TB1Nil)
	if err != nil {
		return CommentError
	}
	tb2Nil, err := parseMeasurement(r.TB2Nil)
	if err != nil {
		return CommentError
	}
	mitNil, err := parseMeasurement(r.MitNil)
	if err != nil {
		return CommentError
	}

	switch {
	case r.IsPositive():
		if tb1Nil >= strongPositiveCutoff || tb2Nil >= strongPositiveCutoff {
			return ""
		}
		wpTB1 := tb1Nil >= weakPositiveFloor && tb1Nil < strongPositiveCutoff
		wpTB2 := tb2Nil >= weakPositiveFloor && tb2Nil < strongPositiveCutoff
		switch {
		case wpTB1 && wpTB2:
			return CommentWPBoth
		case wpTB1:
			return CommentWPTB1
		case wpTB2:
			return CommentWPTB2
		}
		return ""

	case r.Category() == QFTIndeterminate:
		if nilVal > highNilCeiling {
			return CommentHighNil
		}
		if mitNil < lowMitogenFloor {
			return CommentLowMit
		}
		return ""
	}

	return ""
}

// parseMeasurement reads a raw measured value. Comparison markers are
// stripped and a blank reads as zero, so an absent field never blocks
// classification of the rest of the record.
func parseMeasurement(raw string) (float64, error) {
	s := strings.NewReplacer(">", "", "<", "").Replace(raw)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
