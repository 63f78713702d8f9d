package stations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arclens/arclens/internal/store"
)

func TestLoadMissingFileReturnsZeros(t *testing.T) {
	levels := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if levels != (Levels{}) {
		t.Fatalf("expected zero levels, got %+v", levels)
	}
}

func TestLoadWrappedAndFlat(t *testing.T) {
	dir := t.TempDir()

	wrapped := filepath.Join(dir, "wrapped.yaml")
	if err := os.WriteFile(wrapped, []byte("stations:\n  gear_bench: 2\n  scrappy: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	levels := Load(wrapped)
	if levels.GearBench != 2 || levels.Scrappy != 5 {
		t.Fatalf("wrapped load = %+v", levels)
	}

	flat := filepath.Join(dir, "flat.yaml")
	if err := os.WriteFile(flat, []byte("gunsmith: 3\nrefiner: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	levels = Load(flat)
	if levels.Gunsmith != 3 || levels.Refiner != 1 {
		t.Fatalf("flat load = %+v", levels)
	}
}

func TestLoadClampsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	if err := os.WriteFile(path, []byte("stations:\n  gear_bench: 9\n  scrappy: -2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	levels := Load(path)
	if levels.GearBench != 3 {
		t.Errorf("GearBench = %d, want clamped 3", levels.GearBench)
	}
	if levels.Scrappy != 0 {
		t.Errorf("Scrappy = %d, want clamped 0", levels.Scrappy)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if levels := Load(path); levels != (Levels{}) {
		t.Fatalf("expected zero levels on bad yaml, got %+v", levels)
	}
}

func TestParseRequirements(t *testing.T) {
	tests := []struct {
		name    string
		keepFor string
		want    []requirement
	}{
		{
			name:    "single station",
			keepFor: "6x for Gear Bench III Upgrade",
			want:    []requirement{{"gear_bench", 3}},
		},
		{
			name:    "two stations with own numerals",
			keepFor: "10x for Gear Bench III and Utility Station II Upgrades",
			want:    []requirement{{"gear_bench", 3}, {"utility_station", 2}},
		},
		{
			name:    "shared level keyword",
			keepFor: "18x for Explosives, Medical Lab, and Utility Station Level I Upgrades",
			want:    []requirement{{"explosives_station", 1}, {"medical_lab", 1}, {"utility_station", 1}},
		},
		{
			name:    "single station multiple numerals takes max",
			keepFor: "17x for Scrappy III and V",
			want:    []requirement{{"scrappy", 5}},
		},
		{
			name:    "expedition segment skipped",
			keepFor: "Expedition Stage II; 4x for Gunsmith II Upgrade",
			want:    []requirement{{"gunsmith", 2}},
		},
		{
			name:    "quest only",
			keepFor: "Quest: The Long Road",
			want:    nil,
		},
		{
			name:    "no numerals",
			keepFor: "Keep for Gear Bench upgrades",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRequirements(tt.keepFor)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("req[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFallbackAction(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"Keep", ""},
		{"Sell", ""},
		{"Recycle", ""},
		{"Keep until upgrade is complete; sell once done", "Sell"},
		{"Keep until upgrades done, recycle after", "Recycle"},
		{"Keep, sell or recycle once upgrades are done", "Sell"},
		// "sell afterwards" is a direct pattern and wins over the
		// first-mentioned rule.
		{"Keep, recycle or sell afterwards", "Sell"},
		{"Keep, recycle if short on materials", ""},
		{"Keep for high-tier crafting", ""},
	}
	for _, tt := range tests {
		if got := fallbackAction(tt.action); got != tt.want {
			t.Errorf("fallbackAction(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	item := store.Item{
		Name:    "RUSTED BLADES",
		Action:  "Keep until upgrade is complete; sell once done",
		KeepFor: "6x for Gear Bench III Upgrade",
	}

	// Upgrade incomplete: simplify to Keep, keep_for preserved.
	got := Resolve(item, Levels{GearBench: 2})
	if got.Action != "Keep" {
		t.Errorf("incomplete: Action = %q, want Keep", got.Action)
	}
	if got.KeepFor == "" {
		t.Error("incomplete: KeepFor should be preserved")
	}

	// Upgrade complete: fallback action, keep_for cleared.
	got = Resolve(item, Levels{GearBench: 3})
	if got.Action != "Sell" {
		t.Errorf("complete: Action = %q, want Sell", got.Action)
	}
	if got.KeepFor != "" {
		t.Errorf("complete: KeepFor = %q, want empty", got.KeepFor)
	}

	// Plain action passes through untouched.
	plain := store.Item{Name: "JUNK", Action: "Recycle"}
	if got := Resolve(plain, Levels{}); got != plain {
		t.Errorf("plain item changed: %+v", got)
	}

	// Conditional action but no keep_for: unchanged.
	noKeep := store.Item{Name: "X", Action: "Keep; sell once done"}
	if got := Resolve(noKeep, Levels{}); got != noKeep {
		t.Errorf("no keep_for changed: %+v", got)
	}
}
