package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"appdeck/internal/catalog"
	"appdeck/internal/config"
	"appdeck/internal/engine"
	"appdeck/internal/logging"
	"appdeck/internal/overrides"
)

// Daemon owns the engine and the latest catalog snapshot.
type Daemon struct {
	engine *engine.Engine
	store  overrides.Store
	logger *slog.Logger

	lockPath   string
	socketPath string
	lock       *flock.Flock

	refreshInterval time.Duration
	debounce        time.Duration
	watch           bool

	watching atomic.Bool
	snapshot atomic.Pointer[engine.Snapshot]
	running  atomic.Bool
	started  time.Time
	rescan   chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running     bool
	PID         int
	LockPath    string
	SocketPath  string
	StartedAt   time.Time
	ScannedAt   time.Time
	RefreshedAt time.Time
	Entries     int
	Issues      int
	Stats       engine.Stats
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, eng *engine.Engine, store overrides.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || eng == nil || store == nil {
		return nil, errors.New("daemon requires config, engine, and override store")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		engine:          eng,
		store:           store,
		logger:          logging.NewComponentLogger(logger, "daemon"),
		lockPath:        lockPath,
		socketPath:      cfg.SocketPath(),
		lock:            flock.New(lockPath),
		refreshInterval: cfg.RefreshInterval(),
		debounce:        cfg.RescanDebounce(),
		watch:           cfg.Daemon.WatchOverrides,
		rescan:          make(chan struct{}, 1),
	}, nil
}

// Start acquires the daemon lock and launches the background loop. The first
// scan runs asynchronously; Snapshot reports false until it completes.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another appdeck daemon instance is already running")
	}

	var watcher *overrideWatcher
	if d.watch {
		watcher, err = newOverrideWatcher(d.store.Files(), d.logger)
		if err != nil {
			logging.WarnWithContext(d.logger, "override watcher unavailable", "override_watch_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "set daemon.watch_overrides = false to silence"),
				logging.String(logging.FieldImpact, "edits made outside appdeck need a manual rescan"),
			)
			watcher = nil
		}
	}
	d.watching.Store(watcher != nil)

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.started = time.Now()
	d.running.Store(true)
	d.requestRescan()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop(loopCtx, watcher)
	}()

	d.logger.Info("appdeck daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop ends the background loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.watching.Store(false)
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_unlock_failed"),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("appdeck daemon stopped")
}

// Close stops the daemon and closes the override store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Snapshot returns the latest published catalog.
func (d *Daemon) Snapshot() (engine.Snapshot, bool) {
	snap := d.snapshot.Load()
	if snap == nil {
		return engine.Snapshot{}, false
	}
	return *snap, true
}

// Rescan runs a full scan now and publishes it.
func (d *Daemon) Rescan(ctx context.Context) (engine.Snapshot, error) {
	snap, err := d.engine.Scan(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	d.snapshot.Store(&snap)
	return snap, nil
}

// Refresh recomputes running state for the published catalog. When a scan
// publishes in the meantime the refreshed copy is discarded in its favour.
func (d *Daemon) Refresh(ctx context.Context) (engine.Snapshot, error) {
	current := d.snapshot.Load()
	if current == nil {
		return d.Rescan(ctx)
	}
	refreshed, err := d.engine.RefreshRunning(ctx, *current)
	if err != nil {
		return *current, err
	}
	if !d.snapshot.CompareAndSwap(current, &refreshed) {
		if latest := d.snapshot.Load(); latest != nil {
			return *latest, nil
		}
	}
	return refreshed, nil
}

// SetPath stores a custom path and schedules a rescan.
func (d *Daemon) SetPath(ctx context.Context, id, path string) error {
	if err := d.engine.SetOverridePath(ctx, id, path); err != nil {
		return err
	}
	d.afterMutation()
	return nil
}

// ClearPath removes a custom path and schedules a rescan.
func (d *Daemon) ClearPath(ctx context.Context, id string) error {
	if err := d.engine.ClearOverridePath(ctx, id); err != nil {
		return err
	}
	d.afterMutation()
	return nil
}

// AddPortable registers a portable app and schedules a rescan.
func (d *Daemon) AddPortable(ctx context.Context, name, path, publisher string) (catalog.Portable, error) {
	p, err := d.engine.RegisterPortable(ctx, name, path, publisher)
	if err != nil {
		return catalog.Portable{}, err
	}
	d.afterMutation()
	return p, nil
}

// RemovePortable deletes a portable registration and schedules a rescan.
func (d *Daemon) RemovePortable(ctx context.Context, id string) error {
	if err := d.engine.RemovePortable(ctx, id); err != nil {
		return err
	}
	d.afterMutation()
	return nil
}

// Import applies a manifest and schedules a rescan when anything was stored.
func (d *Daemon) Import(ctx context.Context, m overrides.Manifest) (engine.ImportResult, error) {
	result, err := d.engine.ImportManifest(ctx, m)
	if len(result.Portables) > 0 || len(result.CustomPaths) > 0 {
		d.afterMutation()
	}
	return result, err
}

// Portables lists the stored registrations.
func (d *Daemon) Portables(ctx context.Context) ([]catalog.Portable, error) {
	return d.store.Portables(ctx)
}

// Status reports daemon runtime details.
func (d *Daemon) Status() Status {
	status := Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		LockPath:   d.lockPath,
		SocketPath: d.socketPath,
		StartedAt:  d.started,
	}
	if snap, ok := d.Snapshot(); ok {
		status.ScannedAt = snap.ScannedAt
		status.RefreshedAt = snap.RefreshedAt
		status.Entries = len(snap.Entries)
		status.Issues = len(snap.Issues)
		status.Stats = snap.Stats
	}
	return status
}

// afterMutation schedules a rescan. A running watcher already reacts to
// store writes, so an explicit request is only needed without one.
func (d *Daemon) afterMutation() {
	if !d.watching.Load() {
		d.requestRescan()
	}
}

func (d *Daemon) requestRescan() {
	select {
	case d.rescan <- struct{}{}:
	default:
	}
}
