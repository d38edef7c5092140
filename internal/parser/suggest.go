package parser

import (
	"github.com/agext/levenshtein"
)

// suggest returns the keyword closest to given, or "" when none is close
// enough to be a plausible typo.
func suggest(given string, keywords []string) string {
	best, bestDist := "", 3
	for _, k := range keywords {
		if d := levenshtein.Distance(given, k, nil); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
