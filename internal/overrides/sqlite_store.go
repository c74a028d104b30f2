package overrides

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"appdeck/internal/catalog"
	"appdeck/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteStore keeps overrides in a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path, logger: logging.NewComponentLogger(logger, "overrides")}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset overrides)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Files returns the database and its write-ahead log.
func (s *SQLiteStore) Files() []string {
	return []string{s.path, s.path + "-wal"}
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) CustomPaths(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, path FROM custom_paths")
	if err != nil {
		return nil, fmt.Errorf("query custom paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]string)
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, fmt.Errorf("scan custom path: %w", err)
		}
		paths[id] = path
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) SetCustomPath(ctx context.Context, id, path string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	return s.exec(ctx,
		`INSERT INTO custom_paths (id, path, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET path = excluded.path, updated_at = excluded.updated_at`,
		id, path, time.Now().UTC().Format(time.RFC3339Nano),
	)
}

func (s *SQLiteStore) ClearCustomPath(ctx context.Context, id string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	return s.execOne(ctx, fmt.Sprintf("custom path for %q", id), "DELETE FROM custom_paths WHERE id = ?", id)
}

func (s *SQLiteStore) Portables(ctx context.Context) ([]catalog.Portable, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, path, publisher, install_location, added_at FROM portable_apps ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query portable apps: %w", err)
	}
	defer rows.Close()

	var portables []catalog.Portable
	for rows.Next() {
		var (
			p       catalog.Portable
			addedAt sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Path, &p.Publisher, &p.InstallLocation, &addedAt); err != nil {
			return nil, fmt.Errorf("scan portable app: %w", err)
		}
		if addedAt.Valid {
			if ts, err := time.Parse(time.RFC3339Nano, addedAt.String); err == nil {
				p.AddedAt = ts
			}
		}
		portables = append(portables, p)
	}
	return portables, rows.Err()
}

func (s *SQLiteStore) AddPortable(ctx context.Context, p catalog.Portable) error {
	if p.ID == "" || p.Name == "" || p.Path == "" {
		return fmt.Errorf("%w: id, name and path are required", ErrInvalidPortable)
	}
	var addedAt any
	if !p.AddedAt.IsZero() {
		addedAt = p.AddedAt.UTC().Format(time.RFC3339Nano)
	}
	err := s.exec(ctx,
		`INSERT INTO portable_apps (id, name, path, publisher, install_location, added_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Path, p.Publisher, p.InstallLocation, addedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidPortable, p.ID)
	}
	return err
}

func (s *SQLiteStore) SetPortablePath(ctx context.Context, id, path string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	return s.execOne(ctx, fmt.Sprintf("portable app %q", id),
		"UPDATE portable_apps SET path = ?, install_location = ? WHERE id = ?",
		path, parentDir(path), id)
}

func (s *SQLiteStore) RemovePortable(ctx context.Context, id string) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	return s.execOne(ctx, fmt.Sprintf("portable app %q", id), "DELETE FROM portable_apps WHERE id = ?", id)
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// execOne runs a statement that must touch exactly one row.
func (s *SQLiteStore) execOne(ctx context.Context, what, query string, args ...any) error {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
