package mock

import "strings"

// prefixes returns the growing word prefixes of phrase, excluding the full phrase.
func prefixes(phrase string) []string {
	fields := strings.Fields(phrase)
	if len(fields) < 2 {
		return nil
	}
	out := make([]string, 0, len(fields)-1)
	for i := 1; i < len(fields); i++ {
		out = append(out, strings.Join(fields[:i], " "))
	}
	return out
}
