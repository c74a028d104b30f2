package catalog

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is used when Options.Locale is empty or unparsable.
const DefaultLocale = "zh-CN"

// Inputs groups everything one reconciliation pass consumes.
type Inputs struct {
	Registry  []Candidate
	Shortcuts []Candidate
	// Overrides maps entry ids to user-chosen executable paths.
	Overrides map[string]string
	Portables []Portable
	Running   RunningSet
}

// Options tunes a reconciliation pass.
type Options struct {
	Checker PathChecker
	Locale  string
}

// Result is the merged catalog and the quality issues observed while building it.
type Result struct {
	Entries []Entry
	Issues  []Issue
}

// merger holds the catalog under construction. order preserves insertion so
// shortcut matching and the pre-sort layout are deterministic.
type merger struct {
	checker PathChecker
	index   map[string]int
	entries []Entry
	issues  []Issue
	// seeded counts the leading entries that came from the registry.
	seeded int
}

// Reconcile merges scanner output, overrides and portable registrations into
// one catalog with unique ids, sorted by name under the configured locale.
func Reconcile(in Inputs, opts Options) Result {
	checker := opts.Checker
	if checker == nil {
		checker = FileChecker{}
	}
	m := &merger{checker: checker, index: make(map[string]int)}

	for _, cand := range in.Registry {
		m.seedRegistry(cand)
	}
	m.seeded = len(m.entries)

	for _, cand := range in.Shortcuts {
		m.crossReference(cand)
	}

	m.applyOverrides(in.Overrides)

	for _, p := range in.Portables {
		if p.ID == "" {
			continue
		}
		if _, ok := m.index[p.ID]; ok {
			continue
		}
		m.insert(p.Entry())
	}

	stampRunning(m.entries, in.Running)
	SortEntries(m.entries, opts.Locale)

	return Result{Entries: m.entries, Issues: m.issues}
}

// Refresh returns a copy of entries with only the running state recomputed.
func Refresh(entries []Entry, running RunningSet) []Entry {
	out := slices.Clone(entries)
	stampRunning(out, running)
	return out
}

func (m *merger) insert(entry Entry) {
	m.index[entry.ID] = len(m.entries)
	m.entries = append(m.entries, entry)
}

func (m *merger) seedRegistry(cand Candidate) {
	name := strings.TrimSpace(cand.DisplayName)
	if name == "" {
		return
	}
	id := DeriveID(name)
	pos, ok := m.index[id]
	if !ok {
		m.insert(Entry{
			ID:              id,
			Name:            name,
			Path:            cand.ExecutablePath,
			Publisher:       cand.Publisher,
			InstallLocation: cand.InstallLocation,
		})
		return
	}
	m.mergeInto(&m.entries[pos], cand)
}

// mergeInto folds a candidate into an entry with the same identity. The path
// only moves from invalid to valid; blank descriptive fields are filled.
func (m *merger) mergeInto(entry *Entry, cand Candidate) {
	existingValid := m.checker.Valid(entry.Path)
	incomingValid := m.checker.Valid(cand.ExecutablePath)
	switch {
	case !existingValid && incomingValid:
		entry.Path = cand.ExecutablePath
	case existingValid && incomingValid && !samePath(entry.Path, cand.ExecutablePath):
		m.issues = append(m.issues, Issue{
			Kind:   IssueDuplicateName,
			ID:     entry.ID,
			Name:   entry.Name,
			Path:   cand.ExecutablePath,
			Detail: "kept " + entry.Path,
		})
	}
	if entry.Publisher == "" {
		entry.Publisher = cand.Publisher
	}
	if entry.InstallLocation == "" {
		entry.InstallLocation = cand.InstallLocation
	}
}

func (m *merger) crossReference(cand Candidate) {
	name := strings.TrimSpace(cand.DisplayName)
	if name == "" {
		return
	}
	for i := 0; i < m.seeded; i++ {
		entry := &m.entries[i]
		if !MatchName(entry.Name, name) {
			continue
		}
		if !m.checker.Valid(entry.Path) && m.checker.Valid(cand.ExecutablePath) {
			entry.Path = cand.ExecutablePath
		}
		return
	}

	if !m.checker.Valid(cand.ExecutablePath) {
		return
	}
	id := DeriveID(name)
	if pos, ok := m.index[id]; ok {
		m.mergeInto(&m.entries[pos], cand)
		return
	}
	m.insert(Entry{
		ID:              id,
		Name:            name,
		Path:            cand.ExecutablePath,
		InstallLocation: cand.InstallLocation,
	})
}

func (m *merger) applyOverrides(overrides map[string]string) {
	if len(overrides) == 0 {
		return
	}
	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		path := overrides[id]
		pos, ok := m.index[id]
		if !ok {
			m.issues = append(m.issues, Issue{Kind: IssueOverrideUnmatched, ID: id, Path: path})
			continue
		}
		entry := &m.entries[pos]
		entry.Path = path
		if !m.checker.Valid(path) {
			m.issues = append(m.issues, Issue{
				Kind: IssueOverrideTargetMissing,
				ID:   id,
				Name: entry.Name,
				Path: path,
			})
		}
	}
}

func stampRunning(entries []Entry, running RunningSet) {
	for i := range entries {
		entries[i].IsRunning = running != nil &&
			entries[i].Path != "" &&
			running.Contains(BaseName(entries[i].Path))
	}
}

// SortEntries orders entries by name using locale-aware collation, breaking
// ties by id so the order is total.
func SortEntries(entries []Entry, locale string) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || locale == "" {
		tag = language.MustParse(DefaultLocale)
	}
	collator := collate.New(tag, collate.IgnoreCase)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := collator.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func samePath(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
