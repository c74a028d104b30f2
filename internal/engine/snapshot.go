package engine

import (
	"fmt"
	"strings"
	"time"

	"appdeck/internal/catalog"
)

// Stats summarizes one scan.
type Stats struct {
	RegistryCandidates int      `json:"registry_candidates"`
	ShortcutCandidates int      `json:"shortcut_candidates"`
	Overrides          int      `json:"overrides"`
	Portables          int      `json:"portables"`
	Running            int      `json:"running"`
	Runnable           int      `json:"runnable"`
	MissingPath        int      `json:"missing_path"`
	FailedSources      []string `json:"failed_sources,omitempty"`
}

// Snapshot is one immutable catalog. Callers replace their reference on every
// scan or refresh instead of mutating it.
type Snapshot struct {
	ScanID      string          `json:"scan_id"`
	Entries     []catalog.Entry `json:"entries"`
	Issues      []catalog.Issue `json:"issues,omitempty"`
	Stats       Stats           `json:"stats"`
	ScannedAt   time.Time       `json:"scanned_at"`
	RefreshedAt time.Time       `json:"refreshed_at"`
}

// Lookup returns the entry with the given id.
func (s Snapshot) Lookup(id string) (catalog.Entry, error) {
	id = strings.TrimSpace(id)
	for _, e := range s.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return catalog.Entry{}, fmt.Errorf("%w: %q", ErrUnknownEntry, id)
}

// Search returns entries whose name or publisher contains keyword,
// case-insensitively. An empty keyword returns every entry.
func (s Snapshot) Search(keyword string) []catalog.Entry {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return s.Entries
	}
	var out []catalog.Entry
	for _, e := range s.Entries {
		if strings.Contains(strings.ToLower(e.Name), keyword) ||
			strings.Contains(strings.ToLower(e.Publisher), keyword) {
			out = append(out, e)
		}
	}
	return out
}

func countRunning(entries []catalog.Entry) int {
	n := 0
	for _, e := range entries {
		if e.IsRunning {
			n++
		}
	}
	return n
}
