package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"appdeck/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("APPDECK_DATA_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "appdeck")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Store.Backend != "json" {
		t.Fatalf("expected json backend by default, got %q", cfg.Store.Backend)
	}
	if cfg.CommandTimeout() != 30*time.Second {
		t.Fatalf("unexpected command timeout: %s", cfg.CommandTimeout())
	}
	if cfg.Scan.ProbeBatchWidth != 10 {
		t.Fatalf("unexpected probe batch width: %d", cfg.Scan.ProbeBatchWidth)
	}
	if cfg.Catalog.Locale != "zh-CN" {
		t.Fatalf("unexpected locale: %q", cfg.Catalog.Locale)
	}
	if !cfg.Daemon.WatchOverrides {
		t.Fatal("expected override watching enabled by default")
	}
	if cfg.SocketPath() != filepath.Join(wantData, "appdeck.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
	if runtime.GOOS == "windows" && len(cfg.Registry.Namespaces) != 3 {
		t.Fatalf("expected three registry namespaces on windows, got %v", cfg.Registry.Namespaces)
	}
}

func TestLoadUsesDataDirFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	envDir := t.TempDir()
	t.Setenv("APPDECK_DATA_DIR", envDir)
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != envDir {
		t.Fatalf("expected data dir from env, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	payload := struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Store struct {
			Backend string `toml:"backend"`
		} `toml:"store"`
		Shortcuts struct {
			Dirs []string `toml:"dirs"`
		} `toml:"shortcuts"`
		Scan struct {
			ExecutableExtensions []string `toml:"executable_extensions"`
			ProbeBatchWidth      int      `toml:"probe_batch_width"`
		} `toml:"scan"`
		Catalog struct {
			Locale string `toml:"locale"`
		} `toml:"catalog"`
	}{}
	payload.Paths.DataDir = "~/deck"
	payload.Store.Backend = "SQLite"
	payload.Shortcuts.Dirs = []string{"~/menus", "  "}
	payload.Scan.ExecutableExtensions = []string{"EXE", ".bat"}
	payload.Scan.ProbeBatchWidth = 0
	payload.Catalog.Locale = "en-US"

	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "deck") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Fatalf("expected backend to be lower-cased, got %q", cfg.Store.Backend)
	}
	if diff := cmp.Diff([]string{filepath.Join(tempHome, "menus")}, cfg.Shortcuts.Dirs); diff != "" {
		t.Fatalf("shortcut dirs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{".exe", ".bat"}, cfg.Scan.ExecutableExtensions); diff != "" {
		t.Fatalf("extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.Scan.ProbeBatchWidth != 10 {
		t.Fatalf("expected probe width to fall back to default, got %d", cfg.Scan.ProbeBatchWidth)
	}
	if cfg.Catalog.Locale != "en-US" {
		t.Fatalf("unexpected locale: %q", cfg.Catalog.Locale)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"backend", func(c *config.Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"registry pattern", func(c *config.Config) { c.Registry.ExcludePatterns = []string{"("} }, "registry.exclude_patterns"},
		{"shortcut pattern", func(c *config.Config) { c.Shortcuts.ExcludePatterns = []string{"[a-"} }, "shortcuts.exclude_patterns"},
		{"locale", func(c *config.Config) { c.Catalog.Locale = "not a locale!" }, "catalog.locale"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Daemon.RefreshIntervalSeconds != 15 {
		t.Fatalf("unexpected refresh interval: %d", cfg.Daemon.RefreshIntervalSeconds)
	}
}
