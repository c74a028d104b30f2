package ipc

import (
	"time"

	"appdeck/internal/catalog"
	"appdeck/internal/engine"
	"appdeck/internal/overrides"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime and catalog summary information.
type StatusResponse struct {
	Running     bool         `json:"running"`
	PID         int          `json:"pid"`
	LockPath    string       `json:"lock_path"`
	SocketPath  string       `json:"socket_path"`
	StartedAt   time.Time    `json:"started_at"`
	ScannedAt   time.Time    `json:"scanned_at"`
	RefreshedAt time.Time    `json:"refreshed_at"`
	Entries     int          `json:"entries"`
	Issues      int          `json:"issues"`
	Stats       engine.Stats `json:"stats"`
}

// ListRequest fetches the published catalog, optionally filtered.
type ListRequest struct {
	Search string `json:"search"`
}

// ScanRequest forces a full rescan.
type ScanRequest struct{}

// RefreshRequest recomputes running state.
type RefreshRequest struct{}

// CatalogResponse carries a catalog snapshot. Ready is false until the
// daemon's first scan completes.
type CatalogResponse struct {
	Ready    bool            `json:"ready"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// SetPathRequest stores a custom path for an entry.
type SetPathRequest struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ClearPathRequest removes a custom path.
type ClearPathRequest struct {
	ID string `json:"id"`
}

// MutationResponse acknowledges a stored change.
type MutationResponse struct {
	OK bool `json:"ok"`
}

// AddPortableRequest registers a portable app.
type AddPortableRequest struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Publisher string `json:"publisher"`
}

// AddPortableResponse returns the stored registration.
type AddPortableResponse struct {
	Portable catalog.Portable `json:"portable"`
}

// RemovePortableRequest deletes a portable registration.
type RemovePortableRequest struct {
	ID string `json:"id"`
}

// PortablesRequest lists portable registrations.
type PortablesRequest struct{}

// PortablesResponse contains portable registrations.
type PortablesResponse struct {
	Portables []catalog.Portable `json:"portables"`
}

// ImportRequest applies a manifest.
type ImportRequest struct {
	Manifest overrides.Manifest `json:"manifest"`
}

// ImportResponse reports what was stored. Error is set when the import
// stopped part way; the stored records are still reported.
type ImportResponse struct {
	Result engine.ImportResult `json:"result"`
	Error  string              `json:"error,omitempty"`
}
