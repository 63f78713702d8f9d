// Package stations resolves conditional item actions against the
// user's configured crafting station levels.
package stations

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arclens/arclens/internal/store"
)

// Levels holds the user's crafting station upgrade levels. Most
// stations go up to level 3; Scrappy goes to 5.
type Levels struct {
	GearBench         int `yaml:"gear_bench"`
	Gunsmith          int `yaml:"gunsmith"`
	MedicalLab        int `yaml:"medical_lab"`
	ExplosivesStation int `yaml:"explosives_station"`
	UtilityStation    int `yaml:"utility_station"`
	Refiner           int `yaml:"refiner"`
	Scrappy           int `yaml:"scrappy"`
}

type levelsFile struct {
	Stations *Levels `yaml:"stations"`
}

// Load reads station levels from a YAML file. Any failure (missing
// file, bad YAML) yields all-zero levels so resolution degrades to
// "Keep" rather than erroring.
func Load(path string) Levels {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("station levels file not found, station resolution disabled", "path", path)
		} else {
			slog.Warn("failed to read station levels", "path", path, "error", err)
		}
		return Levels{}
	}

	var file levelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("invalid station levels yaml, using defaults", "path", path, "error", err)
		return Levels{}
	}
	if file.Stations != nil {
		return file.Stations.clamp()
	}

	// Also accept a flat file without the "stations:" wrapper.
	var flat Levels
	if err := yaml.Unmarshal(data, &flat); err != nil {
		slog.Warn("invalid station levels yaml, using defaults", "path", path, "error", err)
		return Levels{}
	}
	return flat.clamp()
}

func (l Levels) clamp() Levels {
	l.GearBench = clampLevel(l.GearBench, 3)
	l.Gunsmith = clampLevel(l.Gunsmith, 3)
	l.MedicalLab = clampLevel(l.MedicalLab, 3)
	l.ExplosivesStation = clampLevel(l.ExplosivesStation, 3)
	l.UtilityStation = clampLevel(l.UtilityStation, 3)
	l.Refiner = clampLevel(l.Refiner, 3)
	l.Scrappy = clampLevel(l.Scrappy, 5)
	return l
}

func clampLevel(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func (l Levels) level(key string) int {
	switch key {
	case "gear_bench":
		return l.GearBench
	case "gunsmith":
		return l.Gunsmith
	case "medical_lab":
		return l.MedicalLab
	case "explosives_station":
		return l.ExplosivesStation
	case "utility_station":
		return l.UtilityStation
	case "refiner":
		return l.Refiner
	case "scrappy":
		return l.Scrappy
	}
	return 0
}

// String summarizes the configured levels for logging.
func (l Levels) String() string {
	return fmt.Sprintf("gear=%d gun=%d med=%d expl=%d util=%d ref=%d scrappy=%d",
		l.GearBench, l.Gunsmith, l.MedicalLab, l.ExplosivesStation,
		l.UtilityStation, l.Refiner, l.Scrappy)
}

var romanLevels = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
}

// stationNames maps keep_for text patterns to level keys. Ordered
// longest-first at init so "explosives station" wins over "explosives".
var stationNames = map[string]string{
	"gear bench":         "gear_bench",
	"gunsmith":           "gunsmith",
	"medical lab":        "medical_lab",
	"explosives station": "explosives_station",
	"explosive station":  "explosives_station",
	"explosives":         "explosives_station",
	"utility station":    "utility_station",
	"refiner":            "refiner",
	"scrappy":            "scrappy",
}

var stationPatterns = func() []string {
	keys := make([]string, 0, len(stationNames))
	for k := range stationNames {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return keys
}()

// Segments of keep_for mentioning these are not station upgrades.
var nonStationMarkers = []string{
	"expedition",
	"flickering flames",
	"stage",
	"quest",
	"trader",
	":",
}

var (
	romanRe      = regexp.MustCompile(`\b(I{1,3}|IV|V)\b`)
	levelRe      = regexp.MustCompile(`(?i)\blevel\s+(I{1,3}|IV|V)\b`)
	eitherWayRe  = regexp.MustCompile(`\b(sell|recycle)\s+or\s+(sell|recycle)\b`)
	fallbacksRes = []struct {
		re     *regexp.Regexp
		action string
	}{
		{regexp.MustCompile(`\bsell\s+once\s+done\b`), "Sell"},
		{regexp.MustCompile(`\bsell\s+after\b`), "Sell"},
		{regexp.MustCompile(`\bsell\s+afterwards\b`), "Sell"},
		{regexp.MustCompile(`\brecycle\s+once\s+done\b`), "Recycle"},
		{regexp.MustCompile(`\brecycle\s+after\b`), "Recycle"},
		{regexp.MustCompile(`\brecycle\s+otherwise\b`), "Recycle"},
	}
)

type requirement struct {
	key   string
	level int
}

// parseRequirements extracts (station, level) requirements from a
// keep_for string such as "10x for Gear Bench III and Utility Station
// III Upgrades". Semicolon-separated segments are independent so that
// expedition or quest references do not pollute station parsing.
func parseRequirements(keepFor string) []requirement {
	var reqs []requirement
	for _, segment := range strings.Split(keepFor, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		lower := strings.ToLower(segment)
		skip := false
		for _, marker := range nonStationMarkers {
			if strings.Contains(lower, marker) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		reqs = parseSegment(segment, reqs)
	}
	return reqs
}

func parseSegment(segment string, reqs []requirement) []requirement {
	lower := strings.ToLower(segment)

	type found struct {
		pos int
		key string
	}
	var hits []found
	seen := make(map[string]bool)
	for _, pattern := range stationPatterns {
		pos := strings.Index(lower, pattern)
		if pos < 0 {
			continue
		}
		key := stationNames[pattern]
		if seen[key] {
			continue
		}
		seen[key] = true
		hits = append(hits, found{pos, key})
	}
	if len(hits) == 0 {
		return reqs
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	romans := romanRe.FindAllStringIndex(segment, -1)
	if len(romans) == 0 {
		return reqs
	}

	// "... Level I Upgrades" applies one level to every station named
	// in the segment.
	if m := levelRe.FindStringSubmatch(segment); m != nil {
		if lv, ok := romanLevels[strings.ToUpper(m[1])]; ok {
			for _, h := range hits {
				reqs = append(reqs, requirement{h.key, lv})
			}
		}
		return reqs
	}

	// Single station with several numerals ("Scrappy III and V"):
	// the highest referenced level is the one that matters.
	if len(hits) == 1 {
		best := 0
		for _, span := range romans {
			if lv, ok := romanLevels[segment[span[0]:span[1]]]; ok && lv > best {
				best = lv
			}
		}
		if best > 0 {
			reqs = append(reqs, requirement{hits[0].key, best})
		}
		return reqs
	}

	// Multiple stations: pair each with the nearest numeral after it.
	for _, h := range hits {
		bestDist := -1
		bestLevel := 0
		for _, span := range romans {
			if span[0] <= h.pos {
				continue
			}
			dist := span[0] - h.pos
			if bestDist < 0 || dist < bestDist {
				if lv, ok := romanLevels[segment[span[0]:span[1]]]; ok {
					bestDist = dist
					bestLevel = lv
				}
			}
		}
		if bestLevel > 0 {
			reqs = append(reqs, requirement{h.key, bestLevel})
		}
	}
	return reqs
}

// fallbackAction returns the post-upgrade action ("Sell" or "Recycle")
// for a conditional action string, or "" when the action is plain.
func fallbackAction(action string) string {
	normalized := strings.Join(strings.Fields(action), " ")
	lower := strings.ToLower(normalized)

	switch lower {
	case "keep", "sell", "recycle", "use", "trash":
		return ""
	}

	// Conditions that depend on inventory state, not station levels.
	for _, marker := range []string{
		"recycle if short", "recycle if low",
		"if no inventory", "if excess",
		"keep for high-tier",
	} {
		if strings.Contains(lower, marker) {
			return ""
		}
	}

	for _, f := range fallbacksRes {
		if f.re.MatchString(lower) {
			return f.action
		}
	}

	if m := eitherWayRe.FindStringSubmatch(lower); m != nil {
		return strings.ToUpper(m[1][:1]) + m[1][1:]
	}
	return ""
}

// Resolve rewrites a conditional item action based on station levels.
// When every referenced upgrade is already complete the action becomes
// the fallback (Sell or Recycle); while upgrades remain it simplifies
// to "Keep". Items with plain actions pass through unchanged.
func Resolve(item store.Item, levels Levels) store.Item {
	fallback := fallbackAction(item.Action)
	if fallback == "" || item.KeepFor == "" {
		return item
	}

	reqs := parseRequirements(item.KeepFor)
	if len(reqs) == 0 {
		return item
	}

	allMet := true
	for _, r := range reqs {
		if levels.level(r.key) < r.level {
			allMet = false
			break
		}
	}

	if allMet {
		item.Action = fallback
		item.KeepFor = ""
		return item
	}
	item.Action = "Keep"
	return item
}
