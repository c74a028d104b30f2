package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	defaultDataDir                = "~/.local/share/appdeck"
	defaultStoreBackend           = "json"
	defaultCommandTimeoutSeconds  = 30
	defaultProbeBatchWidth        = 10
	defaultCatalogLocale          = "zh-CN"
	defaultRefreshIntervalSeconds = 15
	defaultRescanDebounceMillis   = 500
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults for the running platform.
// Paths are left empty so normalization can apply APPDECK_DATA_DIR before the
// built-in location.
func Default() Config {
	return Config{
		Store: Store{
			Backend: defaultStoreBackend,
		},
		Registry: Registry{
			Namespaces: defaultRegistryNamespaces(runtime.GOOS),
		},
		Shortcuts: Shortcuts{
			Dirs: defaultShortcutDirs(runtime.GOOS),
		},
		Scan: Scan{
			CommandTimeoutSeconds: defaultCommandTimeoutSeconds,
			ExecutableExtensions:  defaultExecutableExtensions(runtime.GOOS),
			ProbeBatchWidth:       defaultProbeBatchWidth,
		},
		Catalog: Catalog{
			Locale: defaultCatalogLocale,
		},
		Daemon: Daemon{
			RefreshIntervalSeconds: defaultRefreshIntervalSeconds,
			WatchOverrides:         true,
			RescanDebounceMillis:   defaultRescanDebounceMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultRegistryNamespaces(goos string) []string {
	if goos != "windows" {
		return nil
	}
	return []string{
		`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
		`HKLM\SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
		`HKCU\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
	}
}

func defaultShortcutDirs(goos string) []string {
	switch goos {
	case "windows":
		var dirs []string
		if appData := os.Getenv("APPDATA"); appData != "" {
			dirs = append(dirs, filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs"))
		}
		if programData := os.Getenv("ProgramData"); programData != "" {
			dirs = append(dirs, filepath.Join(programData, "Microsoft", "Windows", "Start Menu", "Programs"))
		}
		return dirs
	case "darwin":
		return nil
	default:
		return []string{
			"~/.local/share/applications",
			"/usr/local/share/applications",
			"/usr/share/applications",
		}
	}
}

func defaultExecutableExtensions(goos string) []string {
	if goos == "windows" {
		return []string{".exe"}
	}
	return nil
}
