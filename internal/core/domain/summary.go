package domain

import "strings"

// PositiveBreakdown counts positives by the antigen channel that drove them.
type PositiveBreakdown struct {
	Total int `json:"total"`
	TB1   int `json:"tb1"`
	TB2   int `json:"tb2"`
	Both  int `json:"both"`
}

// IndeterminateBreakdown counts indeterminates by flagged reason.
type IndeterminateBreakdown struct {
	Total   int `json:"total"`
	HighNil int `json:"high_nil"`
	LowMit  int `json:"low_mit"`
}

// Summary is the aggregate view of a record set, grouped exactly the way
// per-row annotations are derived so report totals always match the rows.
type Summary struct {
	TotalSamples   int                    `json:"total_samples"`
	StrongPositive PositiveBreakdown      `json:"strong_positive"`
	WeakPositive   PositiveBreakdown      `json:"weak_positive"`
	Negative       int                    `json:"negative"`
	Indeterminate  IndeterminateBreakdown `json:"indeterminate"`
}

// Summarize reduces a record set to its summary counts. It is a pure fold
// over Comment plus the QFT category; it never fails, records whose
// differentials cannot be parsed simply do not contribute a positive
// sub-count.
func Summarize(records []LabResult) Summary {
	var s Summary
	s.TotalSamples = len(records)

	for _, r := range records {
		comment := Comment(r)

		switch {
		case r.IsPositive():
			if strings.Contains(comment, "WP") {
				s.WeakPositive.Total++
				switch {
				case strings.Contains(comment, "Both"):
					s.WeakPositive.Both++
				case strings.Contains(comment, "TB1"):
					s.WeakPositive.TB1++
				case strings.Contains(comment, "TB2"):
					s.WeakPositive.TB2++
				}
				continue
			}

			tb1Nil, err1 := parseMeasurement(r.TB1Nil)
			tb2Nil, err2 := parseMeasurement(r.TB2Nil)
			if err1 != nil || err2 != nil {
				continue
			}
			switch {
			case tb1Nil >= strongPositiveCutoff && tb2Nil >= strongPositiveCutoff:
				s.StrongPositive.Total++
				s.StrongPositive.Both++
			case tb1Nil >= strongPositiveCutoff:
				s.StrongPositive.Total++
				s.StrongPositive.TB1++
			case tb2Nil >= strongPositiveCutoff:
				s.StrongPositive.Total++
				s.StrongPositive.TB2++
			}

		case r.Category() == QFTNegative:
			s.Negative++

		case r.Category() == QFTIndeterminate:
			s.Indeterminate.Total++
			switch {
			case strings.Contains(comment, CommentHighNil):
				s.Indeterminate.HighNil++
			case strings.Contains(comment, CommentLowMit):
				s.Indeterminate.LowMit++
			}
		}
	}
	return s
}
