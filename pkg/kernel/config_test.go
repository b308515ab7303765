package kernel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig should validate, got %v", err)
	}
}

func TestConfigFromFileMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cogkernel.yaml")
	yamlContent := "server:\n  httpAddr: \":9090\"\ncache:\n  capacity: 64\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := ConfigFromFile(path)
	if err != nil {
		t.Fatalf("ConfigFromFile: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %q, want :9090", cfg.Server.HTTPAddr)
	}
	if cfg.Cache.Capacity != 64 {
		t.Fatalf("Cache.Capacity = %d, want 64", cfg.Cache.Capacity)
	}
	// Untouched fields should retain defaults.
	if cfg.Metabolism.MaxCapacity != DefaultConfig().Metabolism.MaxCapacity {
		t.Fatalf("MaxCapacity should retain default, got %v", cfg.Metabolism.MaxCapacity)
	}
}

func TestConfigFromFileMissingFileErrors(t *testing.T) {
	if _, err := ConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestConfigFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("COGKERNEL_HTTP_ADDR", ":1234")
	t.Setenv("COGKERNEL_CACHE_CAPACITY", "99")
	t.Setenv("COGKERNEL_MCP_ENABLED", "true")

	cfg := ConfigFromEnv(nil)
	if cfg.Server.HTTPAddr != ":1234" {
		t.Fatalf("HTTPAddr = %q, want :1234", cfg.Server.HTTPAddr)
	}
	if cfg.Cache.Capacity != 99 {
		t.Fatalf("Cache.Capacity = %d, want 99", cfg.Cache.Capacity)
	}
	if !cfg.MCP.Enabled {
		t.Fatalf("MCP.Enabled should be true")
	}
}

func TestApplyCLIOverridesOnlyTouchesSetFields(t *testing.T) {
	cfg := DefaultConfig()
	originalFatigue := cfg.Metabolism.FatigueRatio

	addr := ":5555"
	cfg.ApplyCLIOverrides(&CLIOverrides{HTTPAddr: &addr})

	if cfg.Server.HTTPAddr != ":5555" {
		t.Fatalf("HTTPAddr = %q, want :5555", cfg.Server.HTTPAddr)
	}
	if cfg.Metabolism.FatigueRatio != originalFatigue {
		t.Fatalf("FatigueRatio should be untouched, got %v", cfg.Metabolism.FatigueRatio)
	}
}

func TestApplyCLIOverridesNilIsNoOp(t *testing.T) {
	cfg := DefaultConfig()
	before := *cfg
	cfg.ApplyCLIOverrides(nil)
	if *cfg != before {
		t.Fatalf("nil overrides should not mutate config")
	}
}

func TestValidateRejectsZombieRatioAboveFatigue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metabolism.ZombieRatio = cfg.Metabolism.FatigueRatio + 0.1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for zombieRatio > fatigueRatio")
	}
}

func TestValidateRejectsEmptyHFSRootPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HFS.RootPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for empty HFS root path")
	}
}
