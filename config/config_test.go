package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg := Get()

	if cfg.Configuration.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Configuration.Port)
	}
	if cfg.Configuration.CloudBackend != "embedded" {
		t.Errorf("Expected default cloud backend embedded, got %s", cfg.Configuration.CloudBackend)
	}
	if cfg.Configuration.RetryMaxAttempts != 3 {
		t.Errorf("Expected default retry attempts 3, got %d", cfg.Configuration.RetryMaxAttempts)
	}
	if cfg.Configuration.RetryBaseDelayMs != 1000 {
		t.Errorf("Expected default retry base delay 1000ms, got %d", cfg.Configuration.RetryBaseDelayMs)
	}
	if cfg.Configuration.ShareBaseURL != "http://localhost:8080" {
		t.Errorf("Expected default share base URL, got %s", cfg.Configuration.ShareBaseURL)
	}
	if !cfg.FeatureFlags.StorageCompression {
		t.Errorf("Expected storage compression on by default")
	}
	if cfg.FeatureFlags.VerboseSyncLogs {
		t.Errorf("Expected verbose sync logs off by default")
	}
}

func TestGetIsStable(t *testing.T) {
	if Get() != Get() {
		t.Errorf("Expected Get to return the same configuration")
	}
}
