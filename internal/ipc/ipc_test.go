package ipc_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"appdeck/internal/catalog"
	"appdeck/internal/census"
	"appdeck/internal/daemon"
	"appdeck/internal/engine"
	"appdeck/internal/ipc"
	"appdeck/internal/logging"
	"appdeck/internal/overrides"
	"appdeck/internal/scanner"
	"appdeck/internal/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedCollector struct {
	store overrides.Store
}

func (c fixedCollector) Collect(ctx context.Context) scanner.Collection {
	manual, _ := scanner.LoadManual(ctx, c.store)
	return scanner.Collection{
		Registry: []catalog.Candidate{
			{DisplayName: "Foo", ExecutablePath: `C:\Foo\foo.exe`, Source: catalog.SourceRegistry},
			{DisplayName: "Bar Tool", Source: catalog.SourceRegistry},
		},
		Overrides: manual.Overrides,
		Portables: manual.Portables,
		Running:   census.NewSet("foo.exe"),
	}
}

type fooRunningCensus struct{}

func (fooRunningCensus) Snapshot(context.Context) census.Set { return census.NewSet("foo.exe") }

func startServer(t *testing.T) (*ipc.Client, *daemon.Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t)

	store, err := overrides.OpenJSON(cfg.Paths.DataDir, logging.NewNop())
	if err != nil {
		t.Fatalf("OpenJSON returned error: %v", err)
	}
	valid := catalog.PathSet{`C:\Foo\foo.exe`: true, `D:\bar.exe`: true, `E:\tool.exe`: true}
	eng := engine.New(fixedCollector{store: store}, fooRunningCensus{}, store, logging.NewNop(), engine.WithPathChecker(valid))
	d, err := daemon.New(cfg, eng, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start returned error: %v", err)
	}

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		cancel()
		d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("NewServer returned error: %v", err)
	}
	srv.Serve()

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		srv.Close()
		d.Close()
		cancel()
	})
	return client, d
}

func waitReady(t *testing.T, client *ipc.Client) *ipc.CatalogResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.List("")
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if resp.Ready {
			return resp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("daemon never published a catalog")
	return nil
}

func TestIPCListAndStatus(t *testing.T) {
	client, _ := startServer(t)
	resp := waitReady(t, client)
	if len(resp.Snapshot.Entries) != 2 {
		t.Fatalf("expected two entries, got %+v", resp.Snapshot.Entries)
	}
	foo, err := resp.Snapshot.Lookup(catalog.DeriveID("Foo"))
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if !foo.IsRunning {
		t.Fatalf("expected Foo running: %+v", foo)
	}

	filtered, err := client.List("bar")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(filtered.Snapshot.Entries) != 1 || filtered.Snapshot.Entries[0].Name != "Bar Tool" {
		t.Fatalf("unexpected search result: %+v", filtered.Snapshot.Entries)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.Running || status.Entries != 2 || status.PID == 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestIPCMutationsAndScan(t *testing.T) {
	client, _ := startServer(t)
	waitReady(t, client)

	barID := catalog.DeriveID("Bar Tool")
	if err := client.SetPath(barID, `D:\bar.exe`); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	portable, err := client.AddPortable("Tool", `E:\tool.exe`, "")
	if err != nil {
		t.Fatalf("AddPortable returned error: %v", err)
	}
	if !overrides.IsPortableID(portable.ID) || portable.Publisher != overrides.DefaultPortablePublisher {
		t.Fatalf("unexpected portable: %+v", portable)
	}

	scan, err := client.Scan()
	if err != nil && !errors.Is(err, engine.ErrScanInProgress) {
		t.Fatalf("Scan returned error: %v", err)
	}
	if err == nil {
		bar, lookupErr := scan.Snapshot.Lookup(barID)
		if lookupErr != nil {
			t.Fatalf("Lookup returned error: %v", lookupErr)
		}
		if bar.Path != `D:\bar.exe` {
			t.Fatalf("expected custom path, got %+v", bar)
		}
	}

	portables, err := client.Portables()
	if err != nil {
		t.Fatalf("Portables returned error: %v", err)
	}
	if len(portables) != 1 {
		t.Fatalf("expected one portable, got %+v", portables)
	}
	if err := client.RemovePortable(portable.ID); err != nil {
		t.Fatalf("RemovePortable returned error: %v", err)
	}
	if err := client.ClearPath(barID); err != nil {
		t.Fatalf("ClearPath returned error: %v", err)
	}
}

func TestIPCErrorsKeepSentinels(t *testing.T) {
	client, _ := startServer(t)
	waitReady(t, client)

	err := client.ClearPath(catalog.DeriveID("Nope"))
	if !errors.Is(err, engine.ErrUnknownEntry) {
		t.Fatalf("expected ErrUnknownEntry, got %v", err)
	}
	_, err = client.AddPortable("", "", "")
	if !errors.Is(err, overrides.ErrInvalidPortable) {
		t.Fatalf("expected ErrInvalidPortable, got %v", err)
	}
}

func TestIPCImport(t *testing.T) {
	client, _ := startServer(t)
	waitReady(t, client)

	result, err := client.Import(overrides.Manifest{
		Portables:   []overrides.ManifestPortable{{Name: "Tool", Path: `E:\tool.exe`}},
		CustomPaths: map[string]string{"Bar Tool": `D:\bar.exe`},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(result.Portables) != 1 || result.CustomPaths[catalog.DeriveID("Bar Tool")] != `D:\bar.exe` {
		t.Fatalf("unexpected import result: %+v", result)
	}
}
