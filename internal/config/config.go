// Package config handles application configuration
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/arclens/arclens/internal/geometry"
)

// TriggerWord is the fixed text whose on-screen presence signals that the
// inventory UI is open.
const TriggerWord = "INVENTORY"

// Config is assembled once at startup and passed by reference into the
// scanner and preprocessor; nothing re-reads the environment mid-loop.
type Config struct {
	HTTPAddr string

	// TriggerRegions are the screen rectangles checked for the trigger
	// word. A hit in any of them activates tooltip scanning; the menu and
	// in-raid layouts place the word differently, hence two regions.
	TriggerRegions []geometry.Region

	// TooltipCapture is the cursor-anchored rectangle grabbed in the
	// active phase.
	TooltipCapture geometry.CursorCapture

	TriggerScanInterval time.Duration
	TooltipScanInterval time.Duration

	// Cooldown is the minimum time before the same item is re-displayed.
	Cooldown time.Duration

	// TriggerRecheckEvery is how many active ticks pass between trigger
	// re-validations.
	TriggerRecheckEvery int

	DatabasePath   string
	ItemsCSVPath   string
	ProfilesPath   string
	StationsPath   string
	TessdataPath   string
	DebugMode      bool
	DebugOutputDir string
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8700"),
		TriggerRegions: []geometry.Region{
			{
				X:      getEnvInt("TRIGGER_REGION_X", 50),
				Y:      getEnvInt("TRIGGER_REGION_Y", 50),
				Width:  getEnvInt("TRIGGER_REGION_WIDTH", 200),
				Height: getEnvInt("TRIGGER_REGION_HEIGHT", 50),
			},
			{
				X:      getEnvInt("TRIGGER_REGION2_X", 50),
				Y:      getEnvInt("TRIGGER_REGION2_Y", 950),
				Width:  getEnvInt("TRIGGER_REGION2_WIDTH", 200),
				Height: getEnvInt("TRIGGER_REGION2_HEIGHT", 50),
			},
		},
		TooltipCapture: geometry.CursorCapture{
			Width:   getEnvInt("TOOLTIP_CAPTURE_WIDTH", 500),
			Height:  getEnvInt("TOOLTIP_CAPTURE_HEIGHT", 400),
			OffsetX: getEnvInt("TOOLTIP_CAPTURE_OFFSET_X", 50),
			OffsetY: getEnvInt("TOOLTIP_CAPTURE_OFFSET_Y", -50),
		},
		TriggerScanInterval: getEnvDuration("TRIGGER_SCAN_INTERVAL", 500*time.Millisecond),
		TooltipScanInterval: getEnvDuration("TOOLTIP_SCAN_INTERVAL", 300*time.Millisecond),
		Cooldown:            getEnvDuration("OVERLAY_COOLDOWN", 2*time.Second),
		TriggerRecheckEvery: getEnvInt("TRIGGER_RECHECK_EVERY", 3),
		DatabasePath:        getEnv("DATABASE_PATH", "items.db"),
		ItemsCSVPath:        getEnv("ITEMS_CSV_PATH", ""),
		ProfilesPath:        getEnv("PROFILES_PATH", "resolutions.json"),
		StationsPath:        getEnv("STATION_LEVELS_PATH", "station_levels.yaml"),
		TessdataPath:        getEnv("TESSDATA_PREFIX_DIR", ""),
		DebugMode:           getEnvBool("DEBUG_MODE", false),
		DebugOutputDir:      getEnv("DEBUG_OUTPUT_DIR", "./debug"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

// getEnvDuration accepts either a Go duration string ("300ms") or plain
// seconds ("0.3") for compatibility with older configuration files.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return def
}
