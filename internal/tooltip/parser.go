// Package tooltip parses item names out of raw tooltip recognition output
package tooltip

import (
	"strings"
	"unicode"

	"github.com/arclens/arclens/internal/ocr"
)

// Item names render in all caps and may wrap across lines. A line counts as
// part of the name when, after cleaning, it is at least minNameLen long and
// every alphabetic character is uppercase.
const minNameLen = 3

// ParseName extracts the item name from multi-line tooltip text: the first
// contiguous run of all-caps lines, joined with single spaces. Returns ""
// when no such run exists, which callers treat as "nothing actionable".
//
// A section header rendered in caps directly above the name merges into it;
// this mirrors the tooltip layout, where tag rows always separate the two.
func ParseName(raw string) string {
	var nameLines []string
	collecting := false

	for _, line := range strings.Split(raw, "\n") {
		cleaned := ocr.Clean(line)
		if len(cleaned) < 2 {
			continue
		}

		hasAlpha := false
		allCaps := true
		for _, r := range cleaned {
			if unicode.IsLetter(r) {
				hasAlpha = true
				if !unicode.IsUpper(r) {
					allCaps = false
					break
				}
			}
		}
		if !hasAlpha {
			continue
		}

		if allCaps && len(cleaned) >= minNameLen {
			nameLines = append(nameLines, cleaned)
			collecting = true
		} else if collecting {
			break
		}
	}

	return strings.Join(nameLines, " ")
}
