package census

import (
	"sort"
	"strings"

	"appdeck/internal/catalog"
)

// Set is an immutable collection of running executable base names.
type Set struct {
	names map[string]struct{}
}

// NewSet builds a Set from raw names, lower-casing and trimming each one.
func NewSet(names ...string) Set {
	s := Set{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		s.names[name] = struct{}{}
	}
	return s
}

// Contains reports whether baseName is running. The lookup is case-insensitive.
func (s Set) Contains(baseName string) bool {
	if len(s.names) == 0 {
		return false
	}
	_, ok := s.names[strings.ToLower(baseName)]
	return ok
}

// Running reports whether the executable at path is running, judged by its base name.
func (s Set) Running(path string) bool {
	name := catalog.BaseName(path)
	return name != "" && s.Contains(name)
}

// Len returns the number of distinct names.
func (s Set) Len() int { return len(s.names) }

// Names returns the members in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
