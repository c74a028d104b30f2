package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteExecutable writes a no-op shell script with the executable bit set
// and returns its path.
func WriteExecutable(t testing.TB, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteDesktopEntry writes an XDG launcher named file into dir.
func WriteDesktopEntry(t testing.TB, dir, file, name, execPath string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	body := fmt.Sprintf("[Desktop Entry]\nType=Application\nName=%s\nExec=%s %%U\n", name, execPath)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
