package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeRegistry()
	if err := c.normalizeShortcuts(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeCatalog()
	c.normalizeDaemon()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		if value, ok := os.LookupEnv("APPDECK_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.DataDir = value
		} else {
			c.Paths.DataDir = defaultDataDir
		}
	}
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}
}

func (c *Config) normalizeRegistry() {
	c.Registry.Namespaces = trimList(c.Registry.Namespaces)
	c.Registry.ExcludePatterns = trimList(c.Registry.ExcludePatterns)
}

func (c *Config) normalizeShortcuts() error {
	dirs := trimList(c.Shortcuts.Dirs)
	expanded := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		path, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("shortcuts.dirs: %w", err)
		}
		expanded = append(expanded, path)
	}
	c.Shortcuts.Dirs = expanded
	c.Shortcuts.ExcludePatterns = trimList(c.Shortcuts.ExcludePatterns)
	return nil
}

func (c *Config) normalizeScan() {
	if c.Scan.CommandTimeoutSeconds <= 0 {
		c.Scan.CommandTimeoutSeconds = defaultCommandTimeoutSeconds
	}
	if c.Scan.ProbeBatchWidth <= 0 {
		c.Scan.ProbeBatchWidth = defaultProbeBatchWidth
	}
	exts := trimList(c.Scan.ExecutableExtensions)
	for i, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	c.Scan.ExecutableExtensions = exts
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Locale = strings.TrimSpace(c.Catalog.Locale)
	if c.Catalog.Locale == "" {
		c.Catalog.Locale = defaultCatalogLocale
	}
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.RefreshIntervalSeconds <= 0 {
		c.Daemon.RefreshIntervalSeconds = defaultRefreshIntervalSeconds
	}
	if c.Daemon.RescanDebounceMillis <= 0 {
		c.Daemon.RescanDebounceMillis = defaultRescanDebounceMillis
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}
