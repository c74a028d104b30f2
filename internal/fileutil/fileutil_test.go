package fileutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestIsExecutableFileWithExtensions(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "Tool.EXE")
	txt := filepath.Join(dir, "readme.txt")
	for _, p := range []string{exe, txt} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	exts := []string{".exe"}
	if !IsExecutableFile(exe, exts) {
		t.Fatal("expected .EXE to match case-insensitively")
	}
	if IsExecutableFile(txt, exts) {
		t.Fatal("expected .txt to be rejected")
	}
	if IsExecutableFile(dir, exts) {
		t.Fatal("expected directory to be rejected")
	}
	if IsExecutableFile(filepath.Join(dir, "missing.exe"), exts) {
		t.Fatal("expected missing file to be rejected")
	}
	if IsExecutableFile("", exts) {
		t.Fatal("expected empty path to be rejected")
	}
}

func TestIsExecutableFileUsesModeBitsOnUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mode bits are not meaningful on windows")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "tool")
	plain := filepath.Join(dir, "data")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsExecutableFile(bin, nil) {
		t.Fatal("expected 0755 file to be executable")
	}
	if IsExecutableFile(plain, nil) {
		t.Fatal("expected 0644 file to be rejected")
	}
}
