package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.TickRateHz != 20 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadPartialFileOverridesOnlyNamedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen_addr: \":9999\"\ncommand:\n  near_threshold_max: 20\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("expected overridden listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.Command.NearThresholdMax != 20 {
		t.Fatalf("expected overridden threshold, got %.1f", cfg.Command.NearThresholdMax)
	}
	if cfg.TickRateHz != 20 || cfg.Command.DirectPathThreshold != 4 {
		t.Fatalf("expected untouched defaults, got %+v", cfg)
	}
}

func TestLoadAppliesFloors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "tick_rate_hz: -5\nworld_width: 0\ncommand:\n  path_request_cooldown_s: -1\n  near_threshold_max: 1\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TickRateHz != 20 || cfg.WorldWidth != 128 {
		t.Fatalf("expected floored world settings, got %+v", cfg)
	}
	if cfg.Command.PathRequestCooldownSec != 1.0 {
		t.Fatalf("expected floored cooldown, got %.2f", cfg.Command.PathRequestCooldownSec)
	}
	// A max below the min is nonsense and reverts to the default.
	if cfg.Command.NearThresholdMax != 12.0 {
		t.Fatalf("expected near threshold max reset, got %.1f", cfg.Command.NearThresholdMax)
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
