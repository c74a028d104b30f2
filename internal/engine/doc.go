// Package engine is the catalog service boundary: it runs every source
// scanner and the process census, reconciles their output into a Snapshot,
// refreshes running state cheaply, and records the user's overrides so the
// next scan reflects them.
//
// Scans and refreshes are single-flight. A call made while another is in
// flight returns ErrScanInProgress or ErrRefreshInProgress immediately
// instead of queueing, so callers can treat a duplicate trigger as a no-op.
package engine
