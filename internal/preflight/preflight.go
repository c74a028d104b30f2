package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"appdeck/internal/config"
	"appdeck/internal/deps"
	"appdeck/internal/overrides"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckOverrideStore(ctx, cfg, logger),
	}
	for _, dir := range cfg.Shortcuts.Dirs {
		results = append(results, CheckShortcutDir(dir))
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromDependency(status))
	}
	return results
}

// CheckSystemDeps evaluates the external commands needed on this platform.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(runtime.GOOS, len(cfg.Registry.Namespaces) > 0))
}

// CheckOverrideStore opens the configured backend and reads every record.
func CheckOverrideStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) Result {
	name := fmt.Sprintf("Override store (%s)", cfg.Store.Backend)
	store, err := overrides.Open(cfg, logger)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open failed: %v", err)}
	}
	defer store.Close()

	paths, err := store.CustomPaths(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("read custom paths: %v", err)}
	}
	portables, err := store.Portables(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("read portable apps: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d custom paths, %d portable apps", len(paths), len(portables))}
}

// CheckShortcutDir reports whether a shortcut directory can be listed. A
// missing directory passes since scanning skips it.
func CheckShortcutDir(path string) Result {
	name := "Shortcut directory"
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if _, err := os.ReadDir(expanded); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (absent, skipped)", expanded)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", expanded, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", expanded)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable and writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkWritable(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func fromDependency(status deps.Status) Result {
	name := "Command " + status.Name
	switch {
	case status.Available:
		return Result{Name: name, Passed: true, Detail: status.Path}
	case status.Optional:
		return Result{Name: name, Passed: true, Detail: status.Detail + " (optional: " + status.Description + ")"}
	default:
		return Result{Name: name, Detail: status.Detail + " (" + status.Description + ")"}
	}
}
