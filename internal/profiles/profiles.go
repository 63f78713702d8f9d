// Package profiles loads pre-calibrated capture geometry for common
// screen resolutions so a first run lands on usable regions.
package profiles

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/arclens/arclens/internal/config"
	"github.com/arclens/arclens/internal/geometry"
)

// Profile is the calibrated geometry for one screen resolution.
type Profile struct {
	TriggerRegion  *geometry.Region        `json:"trigger_region"`
	TriggerRegion2 *geometry.Region        `json:"trigger_region2"`
	TooltipCapture *geometry.CursorCapture `json:"tooltip_capture"`
}

// Set holds all known resolution profiles keyed by "WxH".
type Set struct {
	profiles map[string]Profile
}

type profilesFile struct {
	Resolutions map[string]Profile `json:"resolutions"`
}

// Load reads a resolutions.json file. A missing file is not an error;
// it just yields an empty set.
func Load(path string) (*Set, error) {
	set := &Set{profiles: make(map[string]Profile)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("read resolution profiles: %w", err)
	}

	var file profilesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse resolution profiles: %w", err)
	}
	for key, profile := range file.Resolutions {
		set.profiles[key] = profile
	}
	return set, nil
}

// Key formats a resolution lookup key for a screen size.
func Key(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

// ForResolution returns the complete profile for a resolution key.
// Profiles whose trigger region was never calibrated do not count.
func (s *Set) ForResolution(key string) (Profile, bool) {
	p, ok := s.profiles[key]
	if !ok || p.TriggerRegion == nil {
		return Profile{}, false
	}
	return p, true
}

// Supported lists resolutions with a complete profile, sorted for
// stable log output.
func (s *Set) Supported() []string {
	var keys []string
	for key, p := range s.profiles {
		if p.TriggerRegion != nil {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Uncalibrated reports whether the config still carries the first-run
// placeholder geometry (a 1x1 region at the origin).
func Uncalibrated(cfg *config.Config) bool {
	if len(cfg.TriggerRegions) == 0 {
		return true
	}
	r := cfg.TriggerRegions[0]
	return r.X == 0 && r.Y == 0 && r.Width == 1 && r.Height == 1
}

// Apply overwrites the config's capture geometry with the profile for
// the given screen size. Returns false when no complete profile exists.
func Apply(cfg *config.Config, set *Set, width, height int) bool {
	key := Key(width, height)
	p, ok := set.ForResolution(key)
	if !ok {
		slog.Warn("no resolution profile", "resolution", key, "supported", set.Supported())
		return false
	}

	regions := []geometry.Region{*p.TriggerRegion}
	if p.TriggerRegion2 != nil {
		regions = append(regions, *p.TriggerRegion2)
	}
	cfg.TriggerRegions = regions
	if p.TooltipCapture != nil {
		cfg.TooltipCapture = *p.TooltipCapture
	}
	slog.Info("applied resolution profile", "resolution", key)
	return true
}
