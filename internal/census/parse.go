package census

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"appdeck/internal/catalog"
)

// parseTasklist reads `tasklist /FO CSV /NH` output. The image name is the
// first column; informational lines without a PID column are ignored.
func parseTasklist(out []byte) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(out))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var names []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse tasklist output: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		if name := strings.TrimSpace(record[0]); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// parsePS reads `ps -o comm=` output, one command per line. Some platforms
// print full paths so only the base name is kept.
func parsePS(out []byte) []string {
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if name := catalog.BaseName(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// listProc walks a procfs mount, preferring the resolved executable link and
// falling back to the short command name for processes whose link is unreadable.
func listProc(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}
	var names []string
	for _, entry := range entries {
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if target, err := os.Readlink(filepath.Join(dir, "exe")); err == nil {
			target = strings.TrimSuffix(target, " (deleted)")
			names = append(names, filepath.Base(target))
			continue
		}
		if comm, err := os.ReadFile(filepath.Join(dir, "comm")); err == nil {
			if name := strings.TrimSpace(string(comm)); name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}
