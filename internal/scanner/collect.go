package scanner

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"appdeck/internal/catalog"
	"appdeck/internal/census"
	"appdeck/internal/logging"
)

// CensusTaker snapshots running executables.
type CensusTaker interface {
	Snapshot(ctx context.Context) census.Set
}

// Collection is the joined output of every source for one scan.
type Collection struct {
	Registry  []catalog.Candidate
	Shortcuts []catalog.Candidate
	Overrides map[string]string
	Portables []catalog.Portable
	Running   census.Set
	// Failed names the sources that degraded to zero records.
	Failed []string
}

// Collector runs every source concurrently for one scan.
type Collector struct {
	registry   *Registry
	namespaces []string
	shortcuts  *Shortcuts
	dirs       []string
	manual     ManualSource
	census     CensusTaker
	timeout    time.Duration
	logger     *slog.Logger
}

// CollectorConfig wires the sources a Collector fans out to. Nil sources are skipped.
type CollectorConfig struct {
	Registry       *Registry
	Namespaces     []string
	Shortcuts      *Shortcuts
	ShortcutDirs   []string
	Manual         ManualSource
	Census         CensusTaker
	CommandTimeout time.Duration
	Logger         *slog.Logger
}

// NewCollector constructs a Collector.
func NewCollector(cfg CollectorConfig) *Collector {
	return &Collector{
		registry:   cfg.Registry,
		namespaces: append([]string(nil), cfg.Namespaces...),
		shortcuts:  cfg.Shortcuts,
		dirs:       append([]string(nil), cfg.ShortcutDirs...),
		manual:     cfg.Manual,
		census:     cfg.Census,
		timeout:    cfg.CommandTimeout,
		logger:     logging.NewComponentLogger(cfg.Logger, "scanner"),
	}
}

type slot struct {
	source     string
	candidates []catalog.Candidate
	err        error
}

// Collect runs one task per registry namespace, per shortcut directory, for
// the manual source and for the census, and waits for all of them. Results
// are assembled in configuration order regardless of completion order.
func (c *Collector) Collect(ctx context.Context) Collection {
	logger := logging.WithContext(ctx, c.logger)

	var (
		g             errgroup.Group
		registrySlots = make([]slot, len(c.namespaces))
		shortcutSlots = make([]slot, len(c.dirs))
		manual        ManualRecords
		manualErr     error
		running       census.Set
	)

	if c.registry != nil {
		for i, ns := range c.namespaces {
			g.Go(func() error {
				taskCtx, cancel := c.commandContext(ctx)
				defer cancel()
				cands, err := c.registry.Scan(taskCtx, ns)
				registrySlots[i] = slot{source: "registry:" + ns, candidates: cands, err: err}
				return nil
			})
		}
	}
	if c.shortcuts != nil {
		for i, dir := range c.dirs {
			g.Go(func() error {
				taskCtx, cancel := c.commandContext(ctx)
				defer cancel()
				cands, err := c.shortcuts.Scan(taskCtx, dir)
				shortcutSlots[i] = slot{source: "shortcuts:" + dir, candidates: cands, err: err}
				return nil
			})
		}
	}
	g.Go(func() error {
		manual, manualErr = LoadManual(ctx, c.manual)
		return nil
	})
	g.Go(func() error {
		if c.census != nil {
			running = c.census.Snapshot(ctx)
		} else {
			running = census.NewSet()
		}
		return nil
	})
	_ = g.Wait()

	var out Collection
	out.Registry = c.join(logger, registrySlots, &out.Failed)
	out.Shortcuts = c.join(logger, shortcutSlots, &out.Failed)
	if manualErr != nil {
		c.warnSource(logger, "manual", manualErr)
		out.Failed = append(out.Failed, "manual")
	} else {
		out.Overrides = manual.Overrides
		out.Portables = manual.Portables
	}
	out.Running = running

	logger.Debug("sources collected",
		logging.Int("registry_candidates", len(out.Registry)),
		logging.Int("shortcut_candidates", len(out.Shortcuts)),
		logging.Int("overrides", len(out.Overrides)),
		logging.Int("portables", len(out.Portables)),
		logging.Int("running", out.Running.Len()),
	)
	return out
}

func (c *Collector) join(logger *slog.Logger, slots []slot, failed *[]string) []catalog.Candidate {
	var out []catalog.Candidate
	for _, s := range slots {
		if s.err != nil {
			c.warnSource(logger, s.source, s.err)
			*failed = append(*failed, s.source)
			continue
		}
		out = append(out, s.candidates...)
	}
	return out
}

func (c *Collector) warnSource(logger *slog.Logger, source string, err error) {
	logging.WarnWithContext(logger, "source unavailable", "source_unavailable",
		logging.String("source", source),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run appdeck doctor to verify scanner prerequisites"),
		logging.String(logging.FieldImpact, "entries from this source are missing from the catalog"),
	)
}

func (c *Collector) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
