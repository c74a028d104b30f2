package scanner

import (
	"fmt"
	"regexp"
)

// Registry entries for patches are not user-facing applications.
var updatePatterns = []string{
	`^KB`,
	`(?i)update for`,
	`(?i)security update`,
	`(?i)hotfix`,
}

// Shortcuts that open documentation, websites or uninstallers rather than the
// application itself.
var nonLaunchPatterns = []string{
	`(?i)uninstall`,
	`(?i)\bremove\b`,
	`(?i)\bhelp\b`,
	`(?i)readme`,
	`(?i)read me`,
	`(?i)website`,
	`(?i)homepage`,
	`(?i)\bmanual\b`,
	`(?i)documentation`,
	`(?i)release notes`,
	`(?i)license`,
	`(?i)\bsupport\b`,
	`卸载`,
	`帮助`,
	`官网`,
	`官方网站`,
	`说明`,
	`手册`,
}

type nameFilter struct {
	patterns []*regexp.Regexp
}

func newNameFilter(builtin, extra []string) (nameFilter, error) {
	var f nameFilter
	for _, group := range [][]string{builtin, extra} {
		for _, expr := range group {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nameFilter{}, fmt.Errorf("compile name filter %q: %w", expr, err)
			}
			f.patterns = append(f.patterns, re)
		}
	}
	return f, nil
}

func (f nameFilter) excluded(name string) bool {
	for _, re := range f.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
