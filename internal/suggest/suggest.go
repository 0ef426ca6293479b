// Package suggest implements the "did you mean" helper used by the parser
// for unknown type names: given a misspelled identifier and a set of valid
// candidates, it proposes the closest one when it is close enough to be
// useful.
package suggest

import "github.com/lithammer/fuzzysearch/fuzzy"

// maxDistance bounds how different a candidate may be from the input and
// still be considered a plausible typo. Distances are Levenshtein edits.
const maxDistance = 2

// Closest returns the candidate in names most similar to name, and true, if
// one exists within maxDistance edits. It returns ("", false) when names is
// empty, when name itself is in names (no suggestion needed), or when
// nothing is close enough.
func Closest(name string, names []string) (string, bool) {
	for _, cand := range names {
		if cand == name {
			return "", false
		}
	}
	best, bestDist := "", maxDistance+1
	for _, cand := range names {
		if d := fuzzy.LevenshteinDistance(name, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
