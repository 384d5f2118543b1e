package domain

import (
	"math"
	"sort"
	"time"
)

// SortField names a sortable column of a record set.
type SortField string

const (
	SortByBarcode       SortField = "barcode"
	SortByRequestedDate SortField = "requested_date"
	SortByQFTResult     SortField = "qft_result"
	SortByNilResult     SortField = "nil_result"
	SortByTB1Result     SortField = "tb1_result"
	SortByTB2Result     SortField = "tb2_result"
	SortByMitResult     SortField = "mit_result"
	SortByTB1Nil        SortField = "tb1_nil"
	SortByTB2Nil        SortField = "tb2_nil"
	SortByMitNil        SortField = "mit_nil"
)

// ParseSortField validates a user-supplied sort column name.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(s); f {
	case SortByBarcode, SortByRequestedDate, SortByQFTResult,
		SortByNilResult, SortByTB1Result, SortByTB2Result, SortByMitResult,
		SortByTB1Nil, SortByTB2Nil, SortByMitNil:
		return f, true
	}
	return "", false
}

// qftSortOrder places flagged positives first and unknown categories last.
var qftSortOrder = map[string]int{
	QFTPositiveFlag:  0,
	QFTPositive:      1,
	QFTIndeterminate: 2,
	QFTNegative:      3,
}

// SortRecords orders records in place. Blank or unparseable values sort after
// real data in either direction, so measurements always lead the view.
func SortRecords(records []LabResult, field SortField, descending bool) {
	less := lessFunc(field, descending)
	sort.SliceStable(records, func(i, j int) bool {
		if descending {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func lessFunc(field SortField, descending bool) func(a, b LabResult) bool {
	switch field {
	case SortByBarcode:
		return func(a, b LabResult) bool { return a.Barcode < b.Barcode }

	case SortByRequestedDate:
		return func(a, b LabResult) bool {
			return dateSortKey(a.RequestedDate, descending).Before(dateSortKey(b.RequestedDate, descending))
		}

	case SortByQFTResult:
		return func(a, b LabResult) bool {
			return qftRank(a.Category()) < qftRank(b.Category())
		}

	default:
		return func(a, b LabResult) bool {
			return numericSortKey(rawField(a, field), descending) < numericSortKey(rawField(b, field), descending)
		}
	}
}

func qftRank(category string) int {
	if rank, ok := qftSortOrder[category]; ok {
		return rank
	}
	return 99
}

func dateSortKey(t *time.Time, descending bool) time.Time {
	if t != nil {
		return *t
	}
	// Missing dates sort after real ones in either direction.
	if descending {
		return time.Time{}
	}
	return time.Unix(1<<62, 0)
}

func numericSortKey(raw string, descending bool) float64 {
	v, err := parseMeasurement(raw)
	if err != nil || isBlank(raw) {
		if descending {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	return v
}

func isBlank(raw string) bool {
	for _, r := range raw {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

func rawField(r LabResult, field SortField) string {
	switch field {
	case SortByNilResult:
		return r.NilResult
	case SortByTB1Result:
		return r.TB1Result
	case SortByTB2Result:
		return r.TB2Result
	case SortByMitResult:
		return r.MitResult
	case SortByTB1Nil:
		return r.TB1Nil
	case SortByTB2Nil:
		return r.TB2Nil
	case SortByMitNil:
		return r.MitNil
	default:
		return ""
	}
}
