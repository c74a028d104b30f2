package daemonctl_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"appdeck/internal/catalog"
	"appdeck/internal/census"
	"appdeck/internal/daemon"
	"appdeck/internal/daemonctl"
	"appdeck/internal/engine"
	"appdeck/internal/ipc"
	"appdeck/internal/logging"
	"appdeck/internal/scanner"
	"appdeck/internal/testsupport"
)

type emptyCollector struct{}

func (emptyCollector) Collect(context.Context) scanner.Collection { return scanner.Collection{} }

type emptyCensus struct{}

func (emptyCensus) Snapshot(context.Context) census.Set { return census.NewSet() }

func TestStopWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	if _, err := daemonctl.Stop(socket, time.Second); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestLaunchRejectsEmptyExecutable(t *testing.T) {
	if err := daemonctl.Launch("  ", daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestEnsureStartedReportsRunningDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	eng := engine.New(emptyCollector{}, emptyCensus{}, store, logging.NewNop(), engine.WithPathChecker(catalog.PathSet{}))
	d, err := daemon.New(cfg, eng, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer d.Stop()

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping: %v", err)
		}
		t.Fatalf("NewServer returned error: %v", err)
	}
	srv.Serve()
	defer srv.Close()

	// The executable is never launched because the socket already answers.
	result, err := daemonctl.EnsureStarted(cfg.SocketPath(), "/nonexistent/appdeck", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted returned error: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning || result.PID == 0 {
		t.Fatalf("unexpected start result: %+v", result)
	}
}
