package config

import "testing"

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("NATS_SUBJECT", "")
	t.Setenv("PREDICT_TIMEOUT_MS", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")
	t.Setenv("DAILY_STATS_WINDOW_DAYS", "")

	cfg := Load()
	if cfg.NATSSubject != "classifications.lifecycle" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
	if cfg.PredictTimeoutMs != 15000 {
		t.Fatalf("expected default predict timeout 15000, got %d", cfg.PredictTimeoutMs)
	}
	if cfg.APIRateLimitRPS != 25 {
		t.Fatalf("expected default rate limit 25, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.DailyStatsWindowDays != 30 {
		t.Fatalf("expected default daily window 30, got %d", cfg.DailyStatsWindowDays)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("PREDICT_TIMEOUT_MS", "5000")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("VARIETY_SEED_PATH", "/etc/papaclick/varieties.yaml")

	cfg := Load()
	if cfg.PredictTimeoutMs != 5000 {
		t.Fatalf("expected predict timeout 5000, got %d", cfg.PredictTimeoutMs)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.VarietySeedPath != "/etc/papaclick/varieties.yaml" {
		t.Fatalf("expected seed path override, got %q", cfg.VarietySeedPath)
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("PREDICT_TIMEOUT_MS", "soon")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.PredictTimeoutMs != 15000 {
		t.Fatalf("expected fallback predict timeout, got %d", cfg.PredictTimeoutMs)
	}
	if cfg.APIRateLimitRPS != 25 {
		t.Fatalf("expected fallback rate limit, got %v", cfg.APIRateLimitRPS)
	}
}
