// Package suggest finds the closest declared name for a misspelled one, so
// pattern errors can say "did you mean".
package suggest

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// Distance is the optimal string alignment distance between a and b: the
// minimum number of single-rune insertions, deletions, substitutions or
// adjacent transpositions needed to turn a into b.
func Distance(a, b string) int {
	return edlib.OSADamerauLevenshteinDistance(a, b)
}

// MaxDistance is the edit budget for a name: one edit for names of up to four
// runes, two for longer ones.
func MaxDistance(name string) int {
	if len([]rune(name)) <= 4 {
		return 1
	}
	return 2
}

// Closest returns the candidate nearest to name within MaxDistance(name).
// Ties go to the alphabetically first candidate.
func Closest(name string, candidates []string) (string, bool) {
	if name == "" || len(candidates) == 0 {
		return "", false
	}
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best, bestDist := "", MaxDistance(name)+1
	for _, c := range sorted {
		if c == name {
			continue
		}
		if d := Distance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

// Hint formats the suggestion for name as " (did you mean 'x'?)", or returns
// "" when nothing is close enough.
func Hint(name string, candidates []string) string {
	if c, ok := Closest(name, candidates); ok {
		return " (did you mean '" + c + "'?)"
	}
	return ""
}
