package tracker

import (
	"flag"
	"path/filepath"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("data dir = %q, want data", cfg.DataDir)
	}
	if want := filepath.Join("data", "sessions.db"); cfg.SessionDBPath != want {
		t.Errorf("session db path = %q, want %q", cfg.SessionDBPath, want)
	}
	if want := filepath.Join("data", "collections.db"); cfg.NamesDBPath != want {
		t.Errorf("names db path = %q, want %q", cfg.NamesDBPath, want)
	}
	if cfg.UniverseTTLSeconds != 1800 || cfg.OwnershipTTLSeconds != 300 {
		t.Errorf("ttl defaults = %d/%d", cfg.UniverseTTLSeconds, cfg.OwnershipTTLSeconds)
	}
	if cfg.UniversePageCap != 20000 {
		t.Errorf("page cap = %d", cfg.UniversePageCap)
	}
}

func TestParseConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("COLLECTIONTRACKER_TELEGRAM_TOKEN", "tok-env")
	t.Setenv("COLLECTIONTRACKER_DATA_DIR", "/tmp/tracker")
	t.Setenv("COLLECTIONTRACKER_OWNERSHIP_TTL_SECONDS", "60")

	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.TelegramToken != "tok-env" {
		t.Errorf("token = %q", cfg.TelegramToken)
	}
	if want := filepath.Join("/tmp/tracker", "sessions.db"); cfg.SessionDBPath != want {
		t.Errorf("session db path = %q, want %q", cfg.SessionDBPath, want)
	}
	if cfg.OwnershipTTLSeconds != 60 {
		t.Errorf("ownership ttl = %d, want 60", cfg.OwnershipTTLSeconds)
	}
}

func TestParseConfigFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("COLLECTIONTRACKER_TELEGRAM_TOKEN", "tok-env")

	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-telegram-token", "tok-flag"})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.TelegramToken != "tok-flag" {
		t.Errorf("token = %q, want flag value", cfg.TelegramToken)
	}
}
