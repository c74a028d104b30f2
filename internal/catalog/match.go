package catalog

import (
	"strings"
	"unicode"
)

// MatchName reports whether a shortcut label plausibly names the same
// application as a registry display name. Both sides are compared
// case-insensitively and match on equality, containment in either direction,
// or equality once all whitespace is removed. Empty names never match.
//
// Containment is deliberately loose: a short name such as "Go" matches
// "Google Chrome". Callers take the first match in catalog order, so the
// outcome depends on registry order when several entries qualify.
func MatchName(registryName, shortcutName string) bool {
	a := strings.ToLower(strings.TrimSpace(registryName))
	b := strings.ToLower(strings.TrimSpace(shortcutName))
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return stripSpace(a) == stripSpace(b)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
