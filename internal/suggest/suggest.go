// Package suggest finds the registered name closest to a mistyped one.
package suggest

import (
	"strings"

	"github.com/agext/levenshtein"
)

// maxDistance bounds how far a suggestion may be from the input. Anything
// further away is more likely a different word than a typo.
const maxDistance = 3

// Closest returns the candidate with the smallest edit distance to name, or
// "" when no candidate is within maxDistance.
func Closest(name string, candidates []string) string {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return ""
	}
	best, bestDist := "", maxDistance+1
	for _, c := range candidates {
		dist := levenshtein.Distance(query, strings.ToLower(c), nil)
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}
