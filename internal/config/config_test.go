package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Kiosk.BaseURL != "https://deepcell.org" {
		t.Errorf("unexpected default base URL: %q", cfg.Kiosk.BaseURL)
	}
	if cfg.Kiosk.UploadPath != "/api/upload" {
		t.Errorf("unexpected default upload path: %q", cfg.Kiosk.UploadPath)
	}
	if cfg.Kiosk.ConnectTimeout != 15 || cfg.Kiosk.ReadTimeout != 10 {
		t.Errorf("unexpected default timeouts: connect=%d read=%d",
			cfg.Kiosk.ConnectTimeout, cfg.Kiosk.ReadTimeout)
	}
	if cfg.Kiosk.FailedStatus != "failed" || cfg.Kiosk.DoneStatus != "done" {
		t.Errorf("unexpected terminal statuses: %q / %q",
			cfg.Kiosk.FailedStatus, cfg.Kiosk.DoneStatus)
	}
	if cfg.Kiosk.MaxWait != 0 {
		t.Errorf("polling must have no deadline by default, got MaxWait=%d", cfg.Kiosk.MaxWait)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KIOSK_BASE_URL", "http://localhost:9000")
	t.Setenv("KIOSK_FAILED_STATUS", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Kiosk.BaseURL != "http://localhost:9000" {
		t.Errorf("expected env override for base URL, got %q", cfg.Kiosk.BaseURL)
	}
	if cfg.Kiosk.FailedStatus != "error" {
		t.Errorf("expected env override for failed status, got %q", cfg.Kiosk.FailedStatus)
	}
}
