package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	// Partial config: only the database path is set
	content := "[database]\npath = \"/tmp/test.db\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want /tmp/test.db", cfg.Database.Path)
	}
	if cfg.Resolver.PatternThreshold != DefaultPatternThreshold {
		t.Errorf("PatternThreshold = %d, want default %d", cfg.Resolver.PatternThreshold, DefaultPatternThreshold)
	}
	if cfg.Resolver.RiverThreshold != DefaultRiverThreshold {
		t.Errorf("RiverThreshold = %d, want default %d", cfg.Resolver.RiverThreshold, DefaultRiverThreshold)
	}
	if cfg.Trace.DepthCeiling != DefaultDepthCeiling {
		t.Errorf("DepthCeiling = %d, want default %d", cfg.Trace.DepthCeiling, DefaultDepthCeiling)
	}
	if cfg.Trace.DefaultDirection != "both" {
		t.Errorf("DefaultDirection = %q, want both", cfg.Trace.DefaultDirection)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[resolver]
pattern_threshold = 30
river_window_miles = 25.0

[cache]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Resolver.PatternThreshold != 30 {
		t.Errorf("PatternThreshold = %d, want 30", cfg.Resolver.PatternThreshold)
	}
	if cfg.Resolver.RiverWindowMiles != 25.0 {
		t.Errorf("RiverWindowMiles = %v, want 25.0", cfg.Resolver.RiverWindowMiles)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile after WriteDefault failed: %v", err)
	}
	if cfg.Resolver.CandidateCap != DefaultCandidateCap {
		t.Errorf("CandidateCap = %d, want %d", cfg.Resolver.CandidateCap, DefaultCandidateCap)
	}

	// Second write without force must refuse
	if err := WriteDefault(path, false); err == nil {
		t.Error("expected error overwriting existing config without force")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault with force failed: %v", err)
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.debouncePeriod = 10 * time.Millisecond
	defer w.Stop()

	reloaded := make(chan *Config, 1)
	w.OnReload(func(cfg *Config) error {
		select {
		case reloaded <- cfg:
		default:
		}
		return nil
	})
	w.Start()

	content := "[resolver]\npattern_threshold = 42\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Resolver.PatternThreshold != 42 {
			t.Errorf("reloaded PatternThreshold = %d, want 42", cfg.Resolver.PatternThreshold)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
