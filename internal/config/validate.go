package config

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validatePatterns("registry.exclude_patterns", c.Registry.ExcludePatterns); err != nil {
		return err
	}
	if err := c.validatePatterns("shortcuts.exclude_patterns", c.Shortcuts.ExcludePatterns); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "json", "sqlite":
		return nil
	default:
		return fmt.Errorf("store.backend: unsupported value %q (use json or sqlite)", c.Store.Backend)
	}
}

func (c *Config) validatePatterns(field string, patterns []string) error {
	for _, pattern := range patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%s: invalid pattern %q: %w", field, pattern, err)
		}
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if _, err := language.Parse(c.Catalog.Locale); err != nil {
		return fmt.Errorf("catalog.locale: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
