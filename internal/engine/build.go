package engine

import (
	"log/slog"

	"appdeck/internal/catalog"
	"appdeck/internal/census"
	"appdeck/internal/config"
	"appdeck/internal/overrides"
	"appdeck/internal/scanner"
)

// NewFromConfig wires the platform scanners, census and checker described by
// cfg around store.
func NewFromConfig(cfg *config.Config, store overrides.Store, logger *slog.Logger) (*Engine, error) {
	checker := catalog.FileChecker{Extensions: cfg.Scan.ExecutableExtensions}

	registry, err := scanner.NewRegistry(nil, cfg.Registry.ExcludePatterns, cfg.Scan.ExecutableExtensions)
	if err != nil {
		return nil, err
	}
	shortcuts, err := scanner.NewShortcuts(nil, checker, cfg.Shortcuts.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	processes := census.New(logger, cfg.CommandTimeout())

	collector := scanner.NewCollector(scanner.CollectorConfig{
		Registry:       registry,
		Namespaces:     cfg.Registry.Namespaces,
		Shortcuts:      shortcuts,
		ShortcutDirs:   cfg.Shortcuts.Dirs,
		Manual:         store,
		Census:         processes,
		CommandTimeout: cfg.CommandTimeout(),
		Logger:         logger,
	})

	return New(collector, processes, store, logger,
		WithPathChecker(checker),
		WithLocale(cfg.Catalog.Locale),
		WithProbeWidth(cfg.Scan.ProbeBatchWidth),
	), nil
}
