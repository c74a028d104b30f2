// Package config loads, normalizes, and validates AppDeck configuration data.
//
// It supplies repository defaults (including platform-specific registry
// namespaces and launcher directories), expands user paths such as tilde
// shortcuts, reads TOML files, and honours the APPDECK_DATA_DIR environment
// fallback. The Config type centralizes every knob the scanners, the override
// store, the daemon, and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
