// Package testsupport builds isolated configs, stores and executable
// fixtures for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"appdeck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory. Scan
// sources are emptied so tests never read the host's registry or launchers,
// the daemon refreshes rarely and override watching is off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Registry.Namespaces = nil
	cfgVal.Shortcuts.Dirs = nil
	cfgVal.Daemon.RefreshIntervalSeconds = 3600
	cfgVal.Daemon.WatchOverrides = false
	cfgVal.Daemon.RescanDebounceMillis = 10

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithBackend selects the override store backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
	}
}

// WithWatchOverrides enables the daemon's override file watcher.
func WithWatchOverrides() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.WatchOverrides = true
	}
}

// WithShortcutDir adds a launcher directory, creating it under the base dir
// when name is relative.
func WithShortcutDir(name string) ConfigOption {
	return func(b *configBuilder) {
		dir := name
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(b.baseDir, name)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir shortcut dir: %v", err)
		}
		b.cfg.Shortcuts.Dirs = append(b.cfg.Shortcuts.Dirs, dir)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// SkipOnWindows skips tests that rely on POSIX scripts or desktop entries.
func SkipOnWindows(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a Unix environment")
	}
}
