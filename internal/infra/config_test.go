package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.TextModel != "gemini-2.5-flash" {
		t.Fatalf("TextModel = %q", cfg.TextModel)
	}
	if cfg.VideoPollInterval != 10*time.Second {
		t.Fatalf("VideoPollInterval = %s, want 10s", cfg.VideoPollInterval)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("VIDEO_POLL_INTERVAL_SECONDS", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test ,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.VideoPollInterval != 3*time.Second {
		t.Fatalf("VideoPollInterval = %s, want 3s", cfg.VideoPollInterval)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.test" {
		t.Fatalf("AllowedOrigins = %q", cfg.AllowedOrigins)
	}
	if cfg.RateLimitPerMin != 30 {
		t.Fatalf("RateLimitPerMin = %d, want fallback 30", cfg.RateLimitPerMin)
	}
}
