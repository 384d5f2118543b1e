package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("NATS_SUBJECT", "")
	t.Setenv("DECIMAL_PLACES", "")
	t.Setenv("IMPORT_RATE_PER_MINUTE", "")
	t.Setenv("MAX_UPLOAD_MB", "")

	cfg := Load()
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("expected default driver sqlite, got %q", cfg.DBDriver)
	}
	if cfg.NATSSubject != "exports.requested" {
		t.Fatalf("expected default subject exports.requested, got %q", cfg.NATSSubject)
	}
	if cfg.DecimalPlaces != "default" {
		t.Fatalf("expected default decimal mode, got %q", cfg.DecimalPlaces)
	}
	if cfg.ImportRatePerMinute != 30 {
		t.Fatalf("expected default import rate 30, got %d", cfg.ImportRatePerMinute)
	}
	if cfg.MaxUploadBytes != 32<<20 {
		t.Fatalf("expected default upload cap 32 MiB, got %d", cfg.MaxUploadBytes)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DECIMAL_PLACES", "2")
	t.Setenv("POS_TEXT_COLOR", "#ff0000")
	t.Setenv("IMPORT_RATE_PER_MINUTE", "bogus")

	cfg := Load()
	if cfg.DBDriver != "postgres" {
		t.Fatalf("expected driver override, got %q", cfg.DBDriver)
	}
	if cfg.DecimalPlaces != "2" {
		t.Fatalf("expected decimal override, got %q", cfg.DecimalPlaces)
	}
	if cfg.Display().PosText != "#ff0000" {
		t.Fatalf("expected color override, got %q", cfg.Display().PosText)
	}
	// unparseable numbers fall back to defaults
	if cfg.ImportRatePerMinute != 30 {
		t.Fatalf("expected fallback import rate 30, got %d", cfg.ImportRatePerMinute)
	}
}
