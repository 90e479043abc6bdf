package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Node.DatabaseName != "ridge" {
		t.Errorf("Node.DatabaseName = %q, want %q", cfg.Node.DatabaseName, "ridge")
	}
	if cfg.Scheduler.ThreadCount != 4 {
		t.Errorf("Scheduler.ThreadCount = %d, want 4", cfg.Scheduler.ThreadCount)
	}
	if !cfg.IPCEndpoint.Enabled {
		t.Error("IPCEndpoint.Enabled = false, want true")
	}
	if cfg.StreamEndpoint.Port != 12345 {
		t.Errorf("StreamEndpoint.Port = %d, want 12345", cfg.StreamEndpoint.Port)
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Node.DatabaseName != DefaultConfig().Node.DatabaseName {
		t.Errorf("Load of missing file did not fall back to defaults")
	}
}
