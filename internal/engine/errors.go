package engine

import "errors"

var (
	// ErrScanInProgress is returned when a full scan is already running.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrRefreshInProgress is returned when a status refresh is already running.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrUnknownEntry is returned when an id does not name a catalog entry.
	ErrUnknownEntry = errors.New("unknown catalog entry")
)
