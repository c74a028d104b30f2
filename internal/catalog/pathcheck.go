package catalog

import "appdeck/internal/fileutil"

// PathChecker decides whether a path points at a launchable executable.
type PathChecker interface {
	Valid(path string) bool
}

// FileChecker consults the filesystem.
type FileChecker struct {
	// Extensions restricts valid files to these suffixes; empty means the
	// platform rule (mode bits on Unix, .exe on Windows).
	Extensions []string
}

func (c FileChecker) Valid(path string) bool {
	return fileutil.IsExecutableFile(path, c.Extensions)
}

// PathSet is a precomputed validity table. Paths absent from the set are invalid.
type PathSet map[string]bool

func (s PathSet) Valid(path string) bool {
	return path != "" && s[path]
}

// RunningSet reports whether an executable base name is currently running.
type RunningSet interface {
	Contains(baseName string) bool
}
