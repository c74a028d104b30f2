// Package catalog merges application observations from several unreliable
// sources into one deduplicated list of launchable entries.
//
// Reconcile is a pure function over its inputs: registry candidates seed the
// catalog, shortcut candidates are cross-referenced by display name, durable
// custom-path overrides are forced, portable registrations are appended, and
// the running state is stamped from a process census before the result is
// collated by locale. Refresh recomputes only the running state of an
// existing catalog.
//
// Path validity is decided by a PathChecker so callers can probe the
// filesystem ahead of time (or substitute a fixed set in tests) and keep
// reconciliation free of I/O.
package catalog
