package scanner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"appdeck/internal/catalog"
)

// Shortcuts resolves launcher shortcuts under a directory tree.
type Shortcuts struct {
	exec     Executor
	filter   nameFilter
	checker  catalog.PathChecker
	goos     string
	lookPath func(string) (string, error)
}

// ShortcutOption customizes a Shortcuts scanner.
type ShortcutOption func(*Shortcuts)

// WithShortcutPlatform overrides the detected operating system.
func WithShortcutPlatform(goos string) ShortcutOption {
	return func(s *Shortcuts) {
		if goos != "" {
			s.goos = goos
		}
	}
}

// WithLookPath replaces the PATH lookup used for relative desktop Exec commands.
func WithLookPath(fn func(string) (string, error)) ShortcutOption {
	return func(s *Shortcuts) {
		if fn != nil {
			s.lookPath = fn
		}
	}
}

// NewShortcuts constructs a Shortcuts scanner. Targets are kept only when
// checker accepts them.
func NewShortcuts(exec Executor, checker catalog.PathChecker, extraExcludes []string, opts ...ShortcutOption) (*Shortcuts, error) {
	if exec == nil {
		exec = commandExecutor{}
	}
	if checker == nil {
		checker = catalog.FileChecker{}
	}
	filter, err := newNameFilter(nonLaunchPatterns, extraExcludes)
	if err != nil {
		return nil, err
	}
	s := &Shortcuts{
		exec:     exec,
		filter:   filter,
		checker:  checker,
		goos:     runtime.GOOS,
		lookPath: lookPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type shortcutTarget struct {
	name   string
	target string
}

// Scan resolves every shortcut below dir. A missing directory yields no
// candidates and no error.
func (s *Shortcuts) Scan(ctx context.Context, dir string) ([]catalog.Candidate, error) {
	var (
		targets []shortcutTarget
		err     error
	)
	if s.goos == "windows" {
		targets, err = s.resolveLinks(ctx, dir)
	} else {
		targets, err = s.resolveDesktopEntries(dir)
	}
	if err != nil {
		return nil, err
	}

	candidates := make([]catalog.Candidate, 0, len(targets))
	for _, t := range targets {
		name := strings.TrimSpace(t.name)
		if name == "" || s.filter.excluded(name) {
			continue
		}
		if !s.checker.Valid(t.target) {
			continue
		}
		candidates = append(candidates, catalog.Candidate{
			DisplayName:     name,
			ExecutablePath:  t.target,
			InstallLocation: filepath.Dir(t.target),
			Source:          catalog.SourceShortcut,
		})
	}
	return candidates, nil
}

const linkResolveScript = `[Console]::OutputEncoding=[Text.Encoding]::UTF8;` +
	`$sh=New-Object -ComObject WScript.Shell;` +
	`Get-ChildItem -LiteralPath '%s' -Recurse -Filter *.lnk -ErrorAction SilentlyContinue | ` +
	`ForEach-Object { $_.FullName + "` + "`t" + `" + $sh.CreateShortcut($_.FullName).TargetPath }`

// resolveLinks asks the Windows shell to resolve every .lnk below dir in one
// PowerShell invocation. Output lines are "<shortcut>\t<target>".
func (s *Shortcuts) resolveLinks(ctx context.Context, dir string) ([]shortcutTarget, error) {
	script := fmt.Sprintf(linkResolveScript, strings.ReplaceAll(dir, "'", "''"))
	out, err := s.exec.Run(ctx, "powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script})
	if err != nil {
		return nil, fmt.Errorf("resolve shortcuts in %s: %w", dir, err)
	}
	return parseLinkListing(out), nil
}

func parseLinkListing(out []byte) []shortcutTarget {
	var targets []shortcutTarget
	scanner := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(out, []byte("\xef\xbb\xbf"))))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		link, target, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		base := filepath.Base(strings.ReplaceAll(link, `\`, "/"))
		targets = append(targets, shortcutTarget{
			name:   strings.TrimSuffix(base, filepath.Ext(base)),
			target: target,
		})
	}
	return targets
}

func (s *Shortcuts) resolveDesktopEntries(dir string) ([]shortcutTarget, error) {
	var targets []shortcutTarget
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".desktop") {
			return nil
		}
		entry, err := readDesktopEntry(path)
		if err != nil || !entry.launchable() {
			return nil
		}
		target := s.resolveExec(entry.exec)
		if target == "" {
			return nil
		}
		name := entry.name
		if name == "" {
			name = strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		}
		targets = append(targets, shortcutTarget{name: name, target: target})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return targets, nil
}

func (s *Shortcuts) resolveExec(command string) string {
	program := execProgram(command)
	if program == "" {
		return ""
	}
	if filepath.IsAbs(program) {
		return program
	}
	resolved, err := s.lookPath(program)
	if err != nil {
		return ""
	}
	return resolved
}
