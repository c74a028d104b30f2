package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"appdeck/internal/catalog"
	"appdeck/internal/config"
	"appdeck/internal/daemon"
	"appdeck/internal/engine"
	"appdeck/internal/ipc"
	"appdeck/internal/logging"
	"appdeck/internal/overrides"
	"appdeck/internal/testsupport"
)

type cliTestEnv struct {
	base       string
	configPath string
	socketPath string
	binDir     string
	cfg        *config.Config
}

// setupCLITestEnv writes a config whose only scan source is a temporary XDG
// applications directory holding one launcher.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	testsupport.SkipOnWindows(t)

	cfg := testsupport.NewConfig(t, testsupport.WithShortcutDir("apps"))
	base := testsupport.BaseDir(cfg)
	env := &cliTestEnv{
		base:       base,
		configPath: filepath.Join(base, "config.toml"),
		socketPath: cfg.SocketPath(),
		binDir:     filepath.Join(base, "bin"),
		cfg:        cfg,
	}
	foo := testsupport.WriteExecutable(t, env.binDir, "foo-tool")
	testsupport.WriteExecutable(t, env.binDir, "portable-tool")
	testsupport.WriteDesktopEntry(t, cfg.Shortcuts.Dirs[0], "foo.desktop", "Foo Tool", foo)

	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[shortcuts]
dirs = [%q]

[daemon]
refresh_interval_seconds = 3600
watch_overrides = false

[logging]
level = "warn"
`, cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Shortcuts.Dirs[0])
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--socket", env.socketPath, "--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func listEntries(t *testing.T, env *cliTestEnv, args ...string) []catalog.Entry {
	t.Helper()
	out, _, err := runCLI(t, env, append([]string{"list", "--json"}, args...)...)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode list output %q: %v", out, err)
	}
	return entries
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// startDaemon serves env's config from an in-test daemon.
func startDaemon(t *testing.T, env *cliTestEnv) {
	t.Helper()
	logger := logging.NewNop()
	store, err := overrides.Open(env.cfg, logger)
	if err != nil {
		t.Fatalf("overrides.Open returned error: %v", err)
	}
	eng, err := engine.NewFromConfig(env.cfg, store, logger)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	d, err := daemon.New(env.cfg, eng, store, logger)
	if err != nil {
		t.Fatalf("daemon.New returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start returned error: %v", err)
	}
	srv, err := ipc.NewServer(ctx, env.socketPath, d, logger)
	if err != nil {
		cancel()
		d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping daemon-backed CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer returned error: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
		d.Close()
		cancel()
	})
}
