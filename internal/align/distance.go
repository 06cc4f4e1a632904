package align

import "github.com/antzucaro/matchr"

// Distance returns the edit distance between a and b, counting one per
// inserted, deleted or substituted rune. Comparison is case-sensitive;
// callers lowercase both sides first.
func Distance(a, b string) int {
	return matchr.Levenshtein(a, b)
}
