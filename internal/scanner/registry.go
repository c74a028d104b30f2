package scanner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"appdeck/internal/catalog"
)

var registryValuePattern = regexp.MustCompile(`^\s*(DisplayName|InstallLocation|DisplayIcon|Publisher)\s+(REG_SZ|REG_EXPAND_SZ)\s+(.*)$`)

// Registry reads installed-program records from Windows uninstall keys.
type Registry struct {
	exec       Executor
	filter     nameFilter
	extensions []string
	lookupEnv  func(string) (string, bool)
}

// NewRegistry constructs a Registry scanner. extraExcludes adds display-name
// patterns to the built-in update filters; extensions lists the suffixes that
// make an icon path executable-shaped (default .exe).
func NewRegistry(exec Executor, extraExcludes, extensions []string) (*Registry, error) {
	if exec == nil {
		exec = commandExecutor{}
	}
	filter, err := newNameFilter(updatePatterns, extraExcludes)
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".exe"}
	}
	return &Registry{exec: exec, filter: filter, extensions: extensions, lookupEnv: os.LookupEnv}, nil
}

// Scan queries one uninstall namespace recursively and returns its candidates.
func (r *Registry) Scan(ctx context.Context, namespace string) ([]catalog.Candidate, error) {
	// chcp switches the console to UTF-8 so non-ASCII display names survive.
	args := []string{"/C", "chcp", "65001", ">nul", "&&", "reg", "query", namespace, "/s"}
	out, err := r.exec.Run(ctx, "cmd", args)
	if err != nil {
		return nil, fmt.Errorf("reg query %s: %w", namespace, err)
	}
	return r.parse(out), nil
}

type registryRecord struct {
	displayName     string
	displayIcon     string
	installLocation string
	publisher       string
}

// parse splits reg query output into key blocks. A block starts at a key
// header line and ends at a blank line or the next header.
func (r *Registry) parse(out []byte) []catalog.Candidate {
	var (
		candidates []catalog.Candidate
		current    registryRecord
		open       bool
	)
	flush := func() {
		if open {
			if cand, ok := r.candidate(current); ok {
				candidates = append(candidates, cand)
			}
		}
		current = registryRecord{}
		open = false
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case strings.HasPrefix(line, "HKEY_"):
			flush()
			open = true
		default:
			m := registryValuePattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			open = true
			value := strings.TrimSpace(m[3])
			if m[2] == "REG_EXPAND_SZ" {
				value = expandPercentVars(value, r.lookupEnv)
			}
			switch m[1] {
			case "DisplayName":
				current.displayName = value
			case "DisplayIcon":
				current.displayIcon = value
			case "InstallLocation":
				current.installLocation = value
			case "Publisher":
				current.publisher = value
			}
		}
	}
	flush()
	return candidates
}

func (r *Registry) candidate(rec registryRecord) (catalog.Candidate, bool) {
	name := strings.TrimSpace(rec.displayName)
	if name == "" || r.filter.excluded(name) {
		return catalog.Candidate{}, false
	}
	installLocation := strings.Trim(strings.TrimSpace(rec.installLocation), `"`)
	return catalog.Candidate{
		DisplayName:     name,
		ExecutablePath:  r.resolvePath(rec.displayIcon, installLocation),
		InstallLocation: installLocation,
		Publisher:       rec.publisher,
		Source:          catalog.SourceRegistry,
	}, true
}

// resolvePath strips the ",<index>" icon suffix and quoting from DisplayIcon.
// When the result does not look like an executable the install directory is
// used instead, if there is one.
func (r *Registry) resolvePath(displayIcon, installLocation string) string {
	path := displayIcon
	if idx := strings.Index(path, ","); idx >= 0 {
		path = path[:idx]
	}
	path = strings.TrimSpace(strings.ReplaceAll(path, `"`, ""))
	if !r.executableShaped(path) && installLocation != "" {
		return installLocation
	}
	return path
}

func (r *Registry) executableShaped(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.ReplaceAll(path, `\`, "/")))
	for _, want := range r.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// expandPercentVars replaces %NAME% references the way REG_EXPAND_SZ values
// are expanded by Windows. Unknown variables are left intact.
func expandPercentVars(value string, lookup func(string) (string, bool)) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(value, '%')
		if start < 0 {
			b.WriteString(value)
			return b.String()
		}
		end := strings.IndexByte(value[start+1:], '%')
		if end < 0 {
			b.WriteString(value)
			return b.String()
		}
		end += start + 1
		name := value[start+1 : end]
		b.WriteString(value[:start])
		if resolved, ok := lookup(name); ok && name != "" {
			b.WriteString(resolved)
		} else {
			b.WriteString(value[start : end+1])
		}
		value = value[end+1:]
	}
}
