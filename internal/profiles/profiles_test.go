package profiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arclens/arclens/internal/config"
	"github.com/arclens/arclens/internal/geometry"
)

const fixtureJSON = `{
  "resolutions": {
    "2560x1440": {
      "trigger_region": {"x": 100, "y": 50, "width": 300, "height": 80},
      "trigger_region2": {"x": 900, "y": 50, "width": 300, "height": 80},
      "tooltip_capture": {"width": 520, "height": 640, "offset_x": 30, "offset_y": -40}
    },
    "1920x1080": {
      "trigger_region": null,
      "trigger_region2": null,
      "tooltip_capture": null
    }
  }
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolutions.json")
	if err := os.WriteFile(path, []byte(fixtureJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if got := set.Supported(); len(got) != 0 {
		t.Fatalf("Supported() = %v, want empty", got)
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolutions.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestForResolution(t *testing.T) {
	set, err := Load(writeFixture(t))
	if err != nil {
		t.Fatal(err)
	}

	p, ok := set.ForResolution("2560x1440")
	if !ok {
		t.Fatal("expected calibrated profile for 2560x1440")
	}
	if p.TriggerRegion.X != 100 || p.TooltipCapture.OffsetY != -40 {
		t.Errorf("unexpected profile: %+v", p)
	}

	// Present but never calibrated.
	if _, ok := set.ForResolution("1920x1080"); ok {
		t.Error("null trigger region should not count as a profile")
	}
	if _, ok := set.ForResolution("800x600"); ok {
		t.Error("unknown resolution should not resolve")
	}

	supported := set.Supported()
	if len(supported) != 1 || supported[0] != "2560x1440" {
		t.Errorf("Supported() = %v", supported)
	}
}

func TestUncalibrated(t *testing.T) {
	cfg := &config.Config{
		TriggerRegions: []geometry.Region{{X: 0, Y: 0, Width: 1, Height: 1}},
	}
	if !Uncalibrated(cfg) {
		t.Error("placeholder region should read as uncalibrated")
	}

	cfg.TriggerRegions[0] = geometry.Region{X: 100, Y: 50, Width: 300, Height: 80}
	if Uncalibrated(cfg) {
		t.Error("real region should read as calibrated")
	}
}

func TestApply(t *testing.T) {
	set, err := Load(writeFixture(t))
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		TriggerRegions:      []geometry.Region{{Width: 1, Height: 1}},
		TriggerScanInterval: 500 * time.Millisecond,
	}
	if !Apply(cfg, set, 2560, 1440) {
		t.Fatal("Apply should succeed for a calibrated resolution")
	}
	if len(cfg.TriggerRegions) != 2 {
		t.Fatalf("TriggerRegions = %v", cfg.TriggerRegions)
	}
	if cfg.TriggerRegions[1].X != 900 {
		t.Errorf("second region = %+v", cfg.TriggerRegions[1])
	}
	if cfg.TooltipCapture.Width != 520 {
		t.Errorf("TooltipCapture = %+v", cfg.TooltipCapture)
	}
	if cfg.TriggerScanInterval != 500*time.Millisecond {
		t.Error("Apply must not touch non-geometry settings")
	}

	if Apply(cfg, set, 800, 600) {
		t.Error("Apply should fail for an unknown resolution")
	}
}
