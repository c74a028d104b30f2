package catalog

import "time"

// SourceKind identifies which scanner produced a candidate.
type SourceKind int

const (
	SourceRegistry SourceKind = iota
	SourceShortcut
	SourceManual
)

func (k SourceKind) String() string {
	switch k {
	case SourceRegistry:
		return "registry"
	case SourceShortcut:
		return "shortcut"
	case SourceManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Candidate is one application observation from a single source, before merge.
type Candidate struct {
	DisplayName     string
	ExecutablePath  string
	InstallLocation string
	Publisher       string
	Source          SourceKind
}

// Entry is the merged representation of one application.
type Entry struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Path            string `json:"path"`
	Publisher       string `json:"publisher"`
	InstallLocation string `json:"installLocation"`
	IsPortable      bool   `json:"isPortable"`
	IsRunning       bool   `json:"isRunning"`
}

// Portable is a user-registered application record as persisted by the
// override store.
type Portable struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Path            string    `json:"path"`
	Publisher       string    `json:"publisher"`
	InstallLocation string    `json:"installLocation"`
	AddedAt         time.Time `json:"addedAt,omitzero"`
}

// Entry converts the registration into its catalog form.
func (p Portable) Entry() Entry {
	return Entry{
		ID:              p.ID,
		Name:            p.Name,
		Path:            p.Path,
		Publisher:       p.Publisher,
		InstallLocation: p.InstallLocation,
		IsPortable:      true,
	}
}

// IssueKind classifies data-quality observations made during a merge.
type IssueKind string

const (
	// IssueDuplicateName marks two sources that reported different paths for one display name.
	IssueDuplicateName IssueKind = "duplicate_name"
	// IssueOverrideTargetMissing marks a custom path that does not resolve to an executable.
	IssueOverrideTargetMissing IssueKind = "override_target_missing"
	// IssueOverrideUnmatched marks a custom path whose id no scanned entry produced.
	IssueOverrideUnmatched IssueKind = "override_unmatched"
)

// Issue is a quality observation; it never prevents a catalog from being built.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	ID     string    `json:"id"`
	Name   string    `json:"name,omitempty"`
	Path   string    `json:"path,omitempty"`
	Detail string    `json:"detail,omitempty"`
}
