package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Store selects the durable override backend.
type Store struct {
	Backend string `toml:"backend"`
}

// Registry configures the installed-program registry scanner.
type Registry struct {
	Namespaces      []string `toml:"namespaces"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

// Shortcuts configures the launcher shortcut scanner.
type Shortcuts struct {
	Dirs            []string `toml:"dirs"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

// Scan contains knobs shared by every source scanner.
type Scan struct {
	CommandTimeoutSeconds int      `toml:"command_timeout_seconds"`
	ExecutableExtensions  []string `toml:"executable_extensions"`
	ProbeBatchWidth       int      `toml:"probe_batch_width"`
}

// Catalog contains presentation settings for the merged catalog.
type Catalog struct {
	Locale string `toml:"locale"`
}

// Daemon contains timing for the long-running catalog owner.
type Daemon struct {
	RefreshIntervalSeconds int  `toml:"refresh_interval_seconds"`
	WatchOverrides         bool `toml:"watch_overrides"`
	RescanDebounceMillis   int  `toml:"rescan_debounce_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for AppDeck.
//
// Configuration sections by subsystem:
//   - Paths: data directory (override store, lock, socket) and log directory
//   - Store: override store backend (json or sqlite)
//   - Registry: installed-program namespaces and extra name filters
//   - Shortcuts: launcher directories and extra name filters
//   - Scan: command timeouts, executable extensions, probing width
//   - Catalog: collation locale
//   - Daemon: refresh interval and override watching
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Store     Store     `toml:"store"`
	Registry  Registry  `toml:"registry"`
	Shortcuts Shortcuts `toml:"shortcuts"`
	Scan      Scan      `toml:"scan"`
	Catalog   Catalog   `toml:"catalog"`
	Daemon    Daemon    `toml:"daemon"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/appdeck/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("appdeck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CommandTimeout returns the per-invocation timeout for external scanner commands.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Scan.CommandTimeoutSeconds) * time.Second
}

// RefreshInterval returns how often the daemon recomputes running state.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Daemon.RefreshIntervalSeconds) * time.Second
}

// RescanDebounce returns the quiet period the daemon waits after an override change.
func (c *Config) RescanDebounce() time.Duration {
	return time.Duration(c.Daemon.RescanDebounceMillis) * time.Millisecond
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "appdeck.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "appdeckd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
