package pdfreport

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

func TestRenderProducesPDF(t *testing.T) {
	records := make([]domain.LabResult, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, domain.LabResult{
			Barcode:   fmt.Sprintf("B-%03d", i+1),
			NilResult: "0.08", TB1Result: "2.13", TB2Result: "1.94", MitResult: "9.84",
			TB1Nil: "2.05", TB2Nil: "1.86", MitNil: "9.76", QFTResult: "POS",
		})
	}
	report := domain.Report{
		SessionName: "Week 12",
		GeneratedAt: time.Date(2026, 3, 23, 12, 0, 0, 0, time.UTC),
		Records:     records,
		Settings:    domain.DefaultDisplaySettings(),
	}

	var buf bytes.Buffer
	if err := NewRenderer().Render(context.Background(), report, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output does not start with %%PDF header")
	}
	if buf.Len() < 1000 {
		t.Fatalf("suspiciously small pdf: %d bytes", buf.Len())
	}
}

func TestRenderEmptySessionStillHasSummary(t *testing.T) {
	report := domain.Report{
		SessionName: "Empty",
		GeneratedAt: time.Now(),
		Settings:    domain.DefaultDisplaySettings(),
	}

	var buf bytes.Buffer
	if err := NewRenderer().Render(context.Background(), report, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output does not start with %%PDF header")
	}
}

func TestHexToRGB(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b int
	}{
		{"#FFF8DC", 255, 248, 220},
		{"e53935", 229, 57, 53},
		{"bogus", 0, 0, 0},
	}
	for _, tc := range cases {
		r, g, b := hexToRGB(tc.in)
		if r != tc.r || g != tc.g || b != tc.b {
			t.Fatalf("hexToRGB(%q) = (%d,%d,%d), want (%d,%d,%d)", tc.in, r, g, b, tc.r, tc.g, tc.b)
		}
	}
}
