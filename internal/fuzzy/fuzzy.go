// Package fuzzy provides approximate matching of noisy recognized text
package fuzzy

import "strings"

// DefaultThreshold is the minimum distinct-character overlap ratio for a
// non-substring match.
const DefaultThreshold = 0.7

// Match reports whether text approximately contains target. An exact
// substring always matches; otherwise the ratio of distinct characters
// shared with the target must reach the threshold. This tolerates
// character-level recognition errors (0 for O, 1 for I) at the cost of
// occasional false positives on short inputs.
func Match(text, target string) bool {
	return MatchThreshold(text, target, DefaultThreshold)
}

// MatchThreshold is Match with an explicit overlap threshold.
func MatchThreshold(text, target string, threshold float64) bool {
	if text == "" {
		return false
	}
	if strings.Contains(text, target) {
		return true
	}

	textChars := make(map[rune]struct{}, len(text))
	for _, r := range text {
		textChars[r] = struct{}{}
	}
	targetChars := make(map[rune]struct{}, len(target))
	for _, r := range target {
		targetChars[r] = struct{}{}
	}
	if len(targetChars) == 0 {
		return false
	}

	shared := 0
	for r := range targetChars {
		if _, ok := textChars[r]; ok {
			shared++
		}
	}
	return float64(shared)/float64(len(targetChars)) >= threshold
}
