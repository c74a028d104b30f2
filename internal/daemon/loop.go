package daemon

import (
	"context"
	"errors"
	"time"

	"appdeck/internal/engine"
	"appdeck/internal/logging"
)

func (d *Daemon) loop(ctx context.Context, watcher *overrideWatcher) {
	var changes <-chan struct{}
	if watcher != nil {
		defer watcher.Close()
		changes = watcher.Changes()
	}

	ticker := time.NewTicker(d.refreshInterval)
	defer ticker.Stop()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.rescan:
			if d.runScan(ctx) {
				debounce.Reset(d.debounce)
			}
		case <-changes:
			debounce.Reset(d.debounce)
		case <-debounce.C:
			d.logger.Debug("rescanning after override change")
			if d.runScan(ctx) {
				debounce.Reset(d.debounce)
			}
		case <-ticker.C:
			if _, err := d.Refresh(ctx); err != nil && !isBusy(err) {
				d.logger.Debug("periodic refresh failed", logging.Error(err))
			}
		}
	}
}

// runScan reports whether the scan was refused by an in-flight refresh and
// should be retried.
func (d *Daemon) runScan(ctx context.Context) bool {
	_, err := d.Rescan(ctx)
	switch {
	case err == nil, errors.Is(err, engine.ErrScanInProgress), errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, engine.ErrRefreshInProgress):
		return true
	}
	logging.ErrorWithContext(d.logger, "catalog scan failed", "daemon_scan_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run appdeck scan in the foreground for details"),
	)
	return false
}

func isBusy(err error) bool {
	return errors.Is(err, engine.ErrScanInProgress) || errors.Is(err, engine.ErrRefreshInProgress)
}
