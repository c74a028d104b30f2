package overrides

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"appdeck/internal/catalog"
	"appdeck/internal/config"
)

var (
	// ErrNotFound indicates the id has no stored override or registration.
	ErrNotFound = errors.New("override not found")
	// ErrInvalidPortable indicates a registration without a name or path.
	ErrInvalidPortable = errors.New("invalid portable registration")
)

// PortableIDPrefix marks ids minted for manual registrations.
const PortableIDPrefix = "portable_"

// DefaultPortablePublisher is recorded when a registration names no publisher.
const DefaultPortablePublisher = "Portable"

// Store is the durable override surface consumed by the engine.
type Store interface {
	CustomPaths(ctx context.Context) (map[string]string, error)
	SetCustomPath(ctx context.Context, id, path string) error
	ClearCustomPath(ctx context.Context, id string) error

	Portables(ctx context.Context) ([]catalog.Portable, error)
	AddPortable(ctx context.Context, p catalog.Portable) error
	SetPortablePath(ctx context.Context, id, path string) error
	RemovePortable(ctx context.Context, id string) error

	// Files lists the on-disk paths whose modification signals a change.
	Files() []string
	Close() error
}

// Open constructs the backend selected by cfg.Store.Backend.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, errors.New("overrides: config is required")
	}
	switch cfg.Store.Backend {
	case "", "json":
		return OpenJSON(cfg.Paths.DataDir, logger)
	case "sqlite":
		return OpenSQLite(filepath.Join(cfg.Paths.DataDir, "overrides.db"), logger)
	default:
		return nil, fmt.Errorf("overrides: unsupported backend %q", cfg.Store.Backend)
	}
}

// NewPortable validates a registration and fills its id, publisher and
// install location.
func NewPortable(name, path, publisher string, now time.Time) (catalog.Portable, error) {
	name = strings.TrimSpace(name)
	path = strings.TrimSpace(path)
	if name == "" {
		return catalog.Portable{}, fmt.Errorf("%w: name is required", ErrInvalidPortable)
	}
	if path == "" {
		return catalog.Portable{}, fmt.Errorf("%w: path is required", ErrInvalidPortable)
	}
	publisher = strings.TrimSpace(publisher)
	if publisher == "" {
		publisher = DefaultPortablePublisher
	}
	return catalog.Portable{
		ID:              PortableIDPrefix + uuid.NewString(),
		Name:            name,
		Path:            path,
		Publisher:       publisher,
		InstallLocation: parentDir(path),
		AddedAt:         now.UTC(),
	}, nil
}

// IsPortableID reports whether id was minted by NewPortable.
func IsPortableID(id string) bool {
	return strings.HasPrefix(id, PortableIDPrefix)
}

// parentDir handles both separator styles so Windows paths registered from
// any host keep a sensible install location.
func parentDir(path string) string {
	idx := strings.LastIndexAny(path, `/\`)
	switch {
	case idx < 0:
		return ""
	case idx == 0:
		return path[:1]
	default:
		return path[:idx]
	}
}

func validateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("id cannot be empty")
	}
	return id, nil
}
