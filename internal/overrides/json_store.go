package overrides

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"appdeck/internal/catalog"
	"appdeck/internal/fileutil"
	"appdeck/internal/logging"
)

const (
	customPathsFile = "customPaths.json"
	portablesFile   = "portableApps.json"
	lockFile        = "overrides.lock"
	lockRetryDelay  = 25 * time.Millisecond
)

// JSONStore keeps overrides in two JSON documents. Every mutation re-reads the
// document under an exclusive file lock so the CLI and the daemon can both write.
type JSONStore struct {
	dir    string
	lock   *flock.Flock
	mu     sync.Mutex
	logger *slog.Logger
}

// OpenJSON prepares a JSON store rooted at dir.
func OpenJSON(dir string, logger *slog.Logger) (*JSONStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("overrides: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &JSONStore{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, lockFile)),
		logger: logging.NewComponentLogger(logger, "overrides"),
	}, nil
}

func (s *JSONStore) customPath() string { return filepath.Join(s.dir, customPathsFile) }

func (s *JSONStore) portablePath() string { return filepath.Join(s.dir, portablesFile) }

// Files returns both documents.
func (s *JSONStore) Files() []string {
	return []string{s.customPath(), s.portablePath()}
}

// Close releases nothing; the lock is only held during mutations.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) CustomPaths(ctx context.Context) (map[string]string, error) {
	var paths map[string]string
	err := s.withLock(ctx, false, func() error {
		var err error
		paths, err = s.readCustomPaths()
		return err
	})
	return paths, err
}

func (s *JSONStore) SetCustomPath(ctx context.Context, id, path string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	return s.withLock(ctx, true, func() error {
		paths, err := s.readCustomPaths()
		if err != nil {
			return err
		}
		paths[id] = path
		if err := s.writeJSON(s.customPath(), paths); err != nil {
			return err
		}
		s.logger.Debug("custom path stored", logging.String("id", id), logging.String("path", path))
		return nil
	})
}

func (s *JSONStore) ClearCustomPath(ctx context.Context, id string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	return s.withLock(ctx, true, func() error {
		paths, err := s.readCustomPaths()
		if err != nil {
			return err
		}
		if _, ok := paths[id]; !ok {
			return fmt.Errorf("%w: custom path for %q", ErrNotFound, id)
		}
		delete(paths, id)
		return s.writeJSON(s.customPath(), paths)
	})
}

func (s *JSONStore) Portables(ctx context.Context) ([]catalog.Portable, error) {
	var portables []catalog.Portable
	err := s.withLock(ctx, false, func() error {
		var err error
		portables, err = s.readPortables()
		return err
	})
	return portables, err
}

func (s *JSONStore) AddPortable(ctx context.Context, p catalog.Portable) error {
	if p.ID == "" || p.Name == "" || p.Path == "" {
		return fmt.Errorf("%w: id, name and path are required", ErrInvalidPortable)
	}
	return s.withLock(ctx, true, func() error {
		portables, err := s.readPortables()
		if err != nil {
			return err
		}
		for _, existing := range portables {
			if existing.ID == p.ID {
				return fmt.Errorf("%w: duplicate id %q", ErrInvalidPortable, p.ID)
			}
		}
		return s.writeJSON(s.portablePath(), append(portables, p))
	})
}

func (s *JSONStore) SetPortablePath(ctx context.Context, id, path string) error {
	return s.updatePortables(ctx, id, func(portables []catalog.Portable, idx int) []catalog.Portable {
		portables[idx].Path = path
		portables[idx].InstallLocation = parentDir(path)
		return portables
	})
}

func (s *JSONStore) RemovePortable(ctx context.Context, id string) error {
	return s.updatePortables(ctx, id, func(portables []catalog.Portable, idx int) []catalog.Portable {
		return append(portables[:idx], portables[idx+1:]...)
	})
}

func (s *JSONStore) updatePortables(ctx context.Context, id string, mutate func([]catalog.Portable, int) []catalog.Portable) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	return s.withLock(ctx, true, func() error {
		portables, err := s.readPortables()
		if err != nil {
			return err
		}
		for i := range portables {
			if portables[i].ID == id {
				return s.writeJSON(s.portablePath(), mutate(portables, i))
			}
		}
		return fmt.Errorf("%w: portable app %q", ErrNotFound, id)
	})
}

// withLock serializes access in-process with a mutex and across processes
// with the lock file. Readers take a shared lock.
func (s *JSONStore) withLock(ctx context.Context, exclusive bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = s.lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("acquire override lock: %w", err)
	}
	if !locked {
		return errors.New("acquire override lock: not acquired")
	}
	defer func() {
		if unlockErr := s.lock.Unlock(); unlockErr != nil {
			s.logger.Debug("release override lock failed", logging.Error(unlockErr))
		}
	}()
	return fn()
}

func (s *JSONStore) readCustomPaths() (map[string]string, error) {
	paths := make(map[string]string)
	data, err := readDocument(s.customPath())
	if err != nil || data == nil {
		return paths, err
	}
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("parse %s: %w", customPathsFile, err)
	}
	return paths, nil
}

func (s *JSONStore) readPortables() ([]catalog.Portable, error) {
	data, err := readDocument(s.portablePath())
	if err != nil || data == nil {
		return nil, err
	}
	var portables []catalog.Portable
	if data[0] == '{' {
		var wrapper struct {
			Portables []catalog.Portable `json:"portables"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("parse %s: %w", portablesFile, err)
		}
		portables = wrapper.Portables
	} else if err := json.Unmarshal(data, &portables); err != nil {
		return nil, fmt.Errorf("parse %s: %w", portablesFile, err)
	}
	return portables, nil
}

// readDocument returns nil data for a missing or blank file. A UTF-8 byte
// order mark written by other editors is stripped.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (s *JSONStore) writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("persist %s: %w", filepath.Base(path), err)
	}
	return nil
}
