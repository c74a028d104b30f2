//go:build windows

package fileutil

import (
	"os"
	"path/filepath"
	"strings"
)

func platformExecutable(path string, _ os.FileInfo) bool {
	return strings.EqualFold(filepath.Ext(path), ".exe")
}
