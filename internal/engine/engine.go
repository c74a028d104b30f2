package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"appdeck/internal/catalog"
	"appdeck/internal/logging"
	"appdeck/internal/overrides"
	"appdeck/internal/scanner"
)

// Collector gathers every source for one scan.
type Collector interface {
	Collect(ctx context.Context) scanner.Collection
}

// Engine owns the scan pipeline and the override store.
type Engine struct {
	collector  Collector
	census     scanner.CensusTaker
	store      overrides.Store
	checker    catalog.PathChecker
	locale     string
	probeWidth int
	logger     *slog.Logger
	now        func() time.Time

	// state is stateIdle, stateScanning or stateRefreshing. Scans and
	// refreshes exclude each other as well as themselves.
	state atomic.Int32
}

const (
	stateIdle int32 = iota
	stateScanning
	stateRefreshing
)

// Option customizes an Engine.
type Option func(*Engine)

// WithPathChecker replaces the filesystem executable check.
func WithPathChecker(c catalog.PathChecker) Option {
	return func(e *Engine) {
		if c != nil {
			e.checker = c
		}
	}
}

// WithLocale sets the collation locale for entry names.
func WithLocale(locale string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(locale) != "" {
			e.locale = locale
		}
	}
}

// WithProbeWidth caps concurrent path probes.
func WithProbeWidth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.probeWidth = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine.
func New(collector Collector, census scanner.CensusTaker, store overrides.Store, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		collector:  collector,
		census:     census,
		store:      store,
		checker:    catalog.FileChecker{},
		locale:     catalog.DefaultLocale,
		probeWidth: 10,
		logger:     logging.NewComponentLogger(logger, "engine"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scan runs the full pipeline: all sources and the census concurrently, then
// reconciliation. It never fails because of a source; the only errors are
// ErrScanInProgress, ErrRefreshInProgress and context cancellation.
func (e *Engine) Scan(ctx context.Context) (Snapshot, error) {
	if !e.state.CompareAndSwap(stateIdle, stateScanning) {
		if e.state.Load() == stateRefreshing {
			return Snapshot{}, ErrRefreshInProgress
		}
		return Snapshot{}, ErrScanInProgress
	}
	defer e.state.Store(stateIdle)

	scanID := uuid.NewString()
	ctx = logging.WithScanID(ctx, scanID)
	logger := logging.WithContext(ctx, e.logger)
	started := e.now()
	logger.Info("catalog scan started")

	coll := e.collector.Collect(ctx)
	checker, err := e.probe(ctx, coll)
	if err != nil {
		return Snapshot{}, err
	}

	result := catalog.Reconcile(catalog.Inputs{
		Registry:  coll.Registry,
		Shortcuts: coll.Shortcuts,
		Overrides: coll.Overrides,
		Portables: coll.Portables,
		Running:   coll.Running,
	}, catalog.Options{Checker: checker, Locale: e.locale})

	e.logIssues(logger, result.Issues)

	now := e.now()
	snap := Snapshot{
		ScanID:      scanID,
		Entries:     result.Entries,
		Issues:      result.Issues,
		ScannedAt:   now,
		RefreshedAt: now,
		Stats: Stats{
			RegistryCandidates: len(coll.Registry),
			ShortcutCandidates: len(coll.Shortcuts),
			Overrides:          len(coll.Overrides),
			Portables:          len(coll.Portables),
			Running:            countRunning(result.Entries),
			FailedSources:      coll.Failed,
		},
	}
	for _, entry := range result.Entries {
		if checker.Valid(entry.Path) {
			snap.Stats.Runnable++
		} else {
			snap.Stats.MissingPath++
		}
	}

	logger.Info("catalog scan complete",
		logging.Int("entries", len(snap.Entries)),
		logging.Int("issues", len(snap.Issues)),
		logging.Int("running", snap.Stats.Running),
		logging.Duration("elapsed", now.Sub(started)),
	)
	return snap, nil
}

// RefreshRunning recomputes only the running flags of snap. It refuses to run
// while a scan or another refresh is in flight.
func (e *Engine) RefreshRunning(ctx context.Context, snap Snapshot) (Snapshot, error) {
	if !e.state.CompareAndSwap(stateIdle, stateRefreshing) {
		if e.state.Load() == stateScanning {
			return snap, ErrScanInProgress
		}
		return snap, ErrRefreshInProgress
	}
	defer e.state.Store(stateIdle)

	var running catalog.RunningSet
	if e.census != nil {
		running = e.census.Snapshot(ctx)
	}
	out := snap
	out.Entries = catalog.Refresh(snap.Entries, running)
	out.RefreshedAt = e.now()
	out.Stats.Running = countRunning(out.Entries)
	return out, nil
}

// SetOverridePath records a user-chosen executable for id. Portable entries
// have their registration updated instead, since overrides are applied before
// portables are merged. The path is stored as given; a missing target is
// reported as an issue by the next scan.
func (e *Engine) SetOverridePath(ctx context.Context, id, path string) error {
	id = strings.TrimSpace(id)
	path = strings.TrimSpace(path)
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrUnknownEntry)
	}
	if path == "" {
		return errors.New("override path cannot be empty")
	}
	if overrides.IsPortableID(id) {
		if err := e.store.SetPortablePath(ctx, id, path); err != nil {
			return translateNotFound(err, id)
		}
	} else if err := e.store.SetCustomPath(ctx, id, path); err != nil {
		return fmt.Errorf("store custom path: %w", err)
	}
	e.logger.Info("override path set",
		logging.String("id", id),
		logging.String("path", path),
		logging.String("decision_type", "override_path"),
		logging.String("decision_result", "stored"),
		logging.String("decision_reason", "user request"),
	)
	return nil
}

// ClearOverridePath removes a custom path so the next scan uses scanned data again.
func (e *Engine) ClearOverridePath(ctx context.Context, id string) error {
	if err := e.store.ClearCustomPath(ctx, id); err != nil {
		return translateNotFound(err, id)
	}
	e.logger.Info("override path cleared", logging.String("id", id))
	return nil
}

// RegisterPortable persists a new manual registration and returns it with its
// freshly minted id.
func (e *Engine) RegisterPortable(ctx context.Context, name, path, publisher string) (catalog.Portable, error) {
	p, err := overrides.NewPortable(name, path, publisher, e.now())
	if err != nil {
		return catalog.Portable{}, err
	}
	if err := e.store.AddPortable(ctx, p); err != nil {
		return catalog.Portable{}, fmt.Errorf("store portable app: %w", err)
	}
	e.logger.Info("portable app registered",
		logging.String("id", p.ID),
		logging.String("name", p.Name),
		logging.String("path", p.Path),
	)
	return p, nil
}

// RemovePortable deletes a manual registration.
func (e *Engine) RemovePortable(ctx context.Context, id string) error {
	if err := e.store.RemovePortable(ctx, id); err != nil {
		return translateNotFound(err, id)
	}
	e.logger.Info("portable app removed", logging.String("id", id))
	return nil
}

// ImportResult reports what ImportManifest stored.
type ImportResult struct {
	Portables   []catalog.Portable `json:"portables"`
	CustomPaths map[string]string  `json:"custom_paths"`
}

// ImportManifest registers every portable and custom path in m. Custom paths
// are keyed by display name, stored under the derived id and applied in name
// order. The first failure stops the import; earlier records stay stored.
func (e *Engine) ImportManifest(ctx context.Context, m overrides.Manifest) (ImportResult, error) {
	result := ImportResult{CustomPaths: make(map[string]string)}
	for _, mp := range m.Portables {
		p, err := e.RegisterPortable(ctx, mp.Name, mp.Path, mp.Publisher)
		if err != nil {
			return result, fmt.Errorf("import %q: %w", mp.Name, err)
		}
		result.Portables = append(result.Portables, p)
	}
	for _, name := range slices.Sorted(maps.Keys(m.CustomPaths)) {
		path := m.CustomPaths[name]
		id := catalog.DeriveID(strings.TrimSpace(name))
		if err := e.SetOverridePath(ctx, id, path); err != nil {
			return result, fmt.Errorf("import custom path for %q: %w", name, err)
		}
		result.CustomPaths[id] = path
	}
	return result, nil
}

// probe validates every distinct path the merge will ask about, at most
// probeWidth at a time, and returns the answers as a fixed table.
func (e *Engine) probe(ctx context.Context, coll scanner.Collection) (catalog.PathSet, error) {
	seen := make(map[string]struct{})
	var paths []string
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	for _, c := range coll.Registry {
		add(c.ExecutablePath)
	}
	for _, c := range coll.Shortcuts {
		add(c.ExecutablePath)
	}
	for _, p := range coll.Overrides {
		add(p)
	}
	for _, p := range coll.Portables {
		add(p.Path)
	}

	valid := make([]bool, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.probeWidth)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			valid[i] = e.checker.Valid(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := make(catalog.PathSet, len(paths))
	for i, p := range paths {
		set[p] = valid[i]
	}
	return set, nil
}

func (e *Engine) logIssues(logger *slog.Logger, issues []catalog.Issue) {
	for _, issue := range issues {
		switch issue.Kind {
		case catalog.IssueOverrideTargetMissing:
			logging.WarnWithContext(logger, "custom path target missing", string(issue.Kind),
				logging.String("id", issue.ID),
				logging.String("name", issue.Name),
				logging.String("path", issue.Path),
				logging.String(logging.FieldErrorHint, "run appdeck set-path with the new location or appdeck clear-path"),
				logging.String(logging.FieldImpact, "entry cannot be launched"),
			)
		default:
			logger.Info("catalog quality issue",
				logging.String("kind", string(issue.Kind)),
				logging.String("id", issue.ID),
				logging.String("name", issue.Name),
				logging.String("path", issue.Path),
				logging.String("detail", issue.Detail),
			)
		}
	}
}

func translateNotFound(err error, id string) error {
	if errors.Is(err, overrides.ErrNotFound) {
		return fmt.Errorf("%w: %q: %w", ErrUnknownEntry, id, err)
	}
	return err
}
