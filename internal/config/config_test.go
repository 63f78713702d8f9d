package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"HTTP_ADDR",
	"TRIGGER_REGION_X", "TRIGGER_REGION_Y", "TRIGGER_REGION_WIDTH", "TRIGGER_REGION_HEIGHT",
	"TRIGGER_REGION2_X", "TRIGGER_REGION2_Y", "TRIGGER_REGION2_WIDTH", "TRIGGER_REGION2_HEIGHT",
	"TOOLTIP_CAPTURE_WIDTH", "TOOLTIP_CAPTURE_HEIGHT", "TOOLTIP_CAPTURE_OFFSET_X", "TOOLTIP_CAPTURE_OFFSET_Y",
	"TRIGGER_SCAN_INTERVAL", "TOOLTIP_SCAN_INTERVAL", "OVERLAY_COOLDOWN", "TRIGGER_RECHECK_EVERY",
	"DATABASE_PATH", "ITEMS_CSV_PATH", "PROFILES_PATH", "STATION_LEVELS_PATH",
	"TESSDATA_PREFIX_DIR", "DEBUG_MODE", "DEBUG_OUTPUT_DIR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if len(cfg.TriggerRegions) != 2 {
		t.Fatalf("expected 2 trigger regions, got %d", len(cfg.TriggerRegions))
	}
	if cfg.TriggerRegions[0].X != 50 || cfg.TriggerRegions[0].Width != 200 {
		t.Errorf("unexpected first trigger region %+v", cfg.TriggerRegions[0])
	}
	if cfg.TooltipCapture.Width != 500 || cfg.TooltipCapture.OffsetY != -50 {
		t.Errorf("unexpected tooltip capture %+v", cfg.TooltipCapture)
	}
	if cfg.TriggerScanInterval != 500*time.Millisecond {
		t.Errorf("TriggerScanInterval = %v", cfg.TriggerScanInterval)
	}
	if cfg.TooltipScanInterval != 300*time.Millisecond {
		t.Errorf("TooltipScanInterval = %v", cfg.TooltipScanInterval)
	}
	if cfg.Cooldown != 2*time.Second {
		t.Errorf("Cooldown = %v", cfg.Cooldown)
	}
	if cfg.TriggerRecheckEvery != 3 {
		t.Errorf("TriggerRecheckEvery = %d", cfg.TriggerRecheckEvery)
	}
	if cfg.DatabasePath != "items.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.DebugMode {
		t.Error("DebugMode should default to false")
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("TRIGGER_REGION_X", "120")
	os.Setenv("TOOLTIP_CAPTURE_OFFSET_X", "-30")
	os.Setenv("TRIGGER_SCAN_INTERVAL", "750ms")
	os.Setenv("OVERLAY_COOLDOWN", "5s")
	os.Setenv("DEBUG_MODE", "true")
	defer clearEnv(t)

	cfg := Load()

	if cfg.TriggerRegions[0].X != 120 {
		t.Errorf("TriggerRegions[0].X = %d", cfg.TriggerRegions[0].X)
	}
	if cfg.TooltipCapture.OffsetX != -30 {
		t.Errorf("TooltipCapture.OffsetX = %d", cfg.TooltipCapture.OffsetX)
	}
	if cfg.TriggerScanInterval != 750*time.Millisecond {
		t.Errorf("TriggerScanInterval = %v", cfg.TriggerScanInterval)
	}
	if cfg.Cooldown != 5*time.Second {
		t.Errorf("Cooldown = %v", cfg.Cooldown)
	}
	if !cfg.DebugMode {
		t.Error("DebugMode should be true")
	}
}

func TestGetEnvDurationSeconds(t *testing.T) {
	clearEnv(t)
	// Plain seconds are accepted for compatibility with older .env files.
	os.Setenv("TOOLTIP_SCAN_INTERVAL", "0.3")
	defer clearEnv(t)

	cfg := Load()
	if cfg.TooltipScanInterval != 300*time.Millisecond {
		t.Errorf("TooltipScanInterval = %v, want 300ms", cfg.TooltipScanInterval)
	}
}
