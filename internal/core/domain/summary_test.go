package domain

import "testing"

func TestSummarizeGroupsLikePerRowAnnotations(t *testing.T) {
	records := []LabResult{
		// Strong positives: TB1-only, TB2-only, both.
		{QFTResult: "POS", TB1Nil: "1.2", TB2Nil: "0.1"},
		{QFTResult: "POS*", TB1Nil: "0.1", TB2Nil: "3.0"},
		{QFTResult: "POS", TB1Nil: "1.0", TB2Nil: "1.0"},
		// Weak positives: TB1, TB2, both.
		{QFTResult: "POS", TB1Nil: "0.5", TB2Nil: "0.2"},
		{QFTResult: "POS", TB1Nil: "0.1", TB2Nil: "0.9"},
		{QFTResult: "POS", TB1Nil: "0.4", TB2Nil: "0.4"},
		// Positive below every band contributes to neither breakdown.
		{QFTResult: "POS", TB1Nil: "0.1", TB2Nil: "0.1"},
		// Negatives.
		{QFTResult: "NEG"},
		{QFTResult: "neg"},
		// Indeterminates: high nil, low mit, unflagged.
		{QFTResult: "IND", NilResult: "9.0", MitNil: "0.1"},
		{QFTResult: "IND", NilResult: "1.0", MitNil: "0.2"},
		{QFTResult: "IND", NilResult: "1.0", MitNil: "2.0"},
	}

	s := Summarize(records)

	if s.TotalSamples != 12 {
		t.Fatalf("TotalSamples = %d, want 12", s.TotalSamples)
	}
	if s.StrongPositive != (PositiveBreakdown{Total: 3, TB1: 1, TB2: 1, Both: 1}) {
		t.Fatalf("StrongPositive = %+v", s.StrongPositive)
	}
	if s.WeakPositive != (PositiveBreakdown{Total: 3, TB1: 1, TB2: 1, Both: 1}) {
		t.Fatalf("WeakPositive = %+v", s.WeakPositive)
	}
	if s.Negative != 2 {
		t.Fatalf("Negative = %d, want 2", s.Negative)
	}
	if s.Indeterminate != (IndeterminateBreakdown{Total: 3, HighNil: 1, LowMit: 1}) {
		t.Fatalf("Indeterminate = %+v", s.Indeterminate)
	}
}

func TestSummarizeSkipsUnparseablePositives(t *testing.T) {
	s := Summarize([]LabResult{{QFTResult: "POS", TB1Nil: "abc", TB2Nil: "1.5"}})
	if s.TotalSamples != 1 {
		t.Fatalf("TotalSamples = %d, want 1", s.TotalSamples)
	}
	if s.StrongPositive.Total != 0 || s.WeakPositive.Total != 0 {
		t.Fatalf("unparseable positive contributed a sub-count: %+v", s)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Fatalf("Summarize(nil) = %+v, want zero", s)
	}
}
