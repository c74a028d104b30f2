package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"appdeck/internal/catalog"
	"appdeck/internal/census"
	"appdeck/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// delayedExecutor answers reg queries with per-namespace delays so later
// namespaces finish first.
type delayedExecutor struct {
	mu      sync.Mutex
	delays  map[string]time.Duration
	outputs map[string]string
	fail    map[string]bool
}

func (d *delayedExecutor) Run(ctx context.Context, _ string, args []string) ([]byte, error) {
	ns := args[len(args)-2]
	d.mu.Lock()
	delay, out, fail := d.delays[ns], d.outputs[ns], d.fail[ns]
	d.mu.Unlock()
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if fail {
		return nil, errors.New("reg failed")
	}
	return []byte(out), nil
}

type fakeManual struct {
	overrides map[string]string
	portables []catalog.Portable
	err       error
}

func (f fakeManual) CustomPaths(context.Context) (map[string]string, error) {
	return f.overrides, f.err
}

func (f fakeManual) Portables(context.Context) ([]catalog.Portable, error) {
	return f.portables, nil
}

type fakeCensus struct{ names []string }

func (f fakeCensus) Snapshot(context.Context) census.Set { return census.NewSet(f.names...) }

func regBlock(name, exe string) string {
	return "HKEY_LOCAL_MACHINE\\X\\" + name + "\r\n" +
		"    DisplayName    REG_SZ    " + name + "\r\n" +
		"    DisplayIcon    REG_SZ    " + exe + "\r\n\r\n"
}

func TestCollectJoinsSourcesInConfigOrder(t *testing.T) {
	exec := &delayedExecutor{
		delays: map[string]time.Duration{"NS1": 40 * time.Millisecond, "NS2": 0, "NS3": 10 * time.Millisecond},
		outputs: map[string]string{
			"NS1": regBlock("Alpha", `C:\a.exe`),
			"NS2": regBlock("Beta", `C:\b.exe`),
			"NS3": regBlock("Gamma", `C:\c.exe`),
		},
		fail: map[string]bool{"NS3": true},
	}
	reg, err := NewRegistry(exec, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	manual := fakeManual{
		overrides: map[string]string{"id1": `C:\custom.exe`},
		portables: []catalog.Portable{{ID: "portable_1", Name: "MyTool"}},
	}
	collector := NewCollector(CollectorConfig{
		Registry:       reg,
		Namespaces:     []string{"NS1", "NS2", "NS3"},
		Manual:         manual,
		Census:         fakeCensus{names: []string{"a.exe"}},
		CommandTimeout: time.Second,
		Logger:         logging.NewNop(),
	})

	got := collector.Collect(context.Background())

	var names []string
	for _, c := range got.Registry {
		names = append(names, c.DisplayName)
	}
	if diff := cmp.Diff([]string{"Alpha", "Beta"}, names); diff != "" {
		t.Fatalf("registry order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"registry:NS3"}, got.Failed); diff != "" {
		t.Fatalf("failed sources mismatch (-want +got):\n%s", diff)
	}
	if got.Overrides["id1"] != `C:\custom.exe` || len(got.Portables) != 1 {
		t.Fatalf("manual records not loaded: %+v", got)
	}
	if !got.Running.Contains("a.exe") {
		t.Fatal("expected census snapshot in collection")
	}
}

func TestCollectDegradesManualFailure(t *testing.T) {
	collector := NewCollector(CollectorConfig{
		Manual: fakeManual{err: errors.New("corrupt store")},
		Logger: logging.NewNop(),
	})
	got := collector.Collect(context.Background())
	if got.Overrides != nil || got.Portables != nil {
		t.Fatalf("expected manual records to be dropped, got %+v", got)
	}
	if diff := cmp.Diff([]string{"manual"}, got.Failed); diff != "" {
		t.Fatalf("failed sources mismatch (-want +got):\n%s", diff)
	}
	if got.Running.Len() != 0 {
		t.Fatal("expected empty running set without census")
	}
}

func TestCollectAppliesCommandTimeout(t *testing.T) {
	exec := &delayedExecutor{
		delays:  map[string]time.Duration{"Slow": time.Minute},
		outputs: map[string]string{"Slow": regBlock("Slow", `C:\s.exe`)},
	}
	reg, err := NewRegistry(exec, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	collector := NewCollector(CollectorConfig{
		Registry:       reg,
		Namespaces:     []string{"Slow"},
		CommandTimeout: 20 * time.Millisecond,
		Logger:         logging.NewNop(),
	})

	got := collector.Collect(context.Background())
	if len(got.Registry) != 0 || len(got.Failed) != 1 {
		t.Fatalf("expected timed-out namespace to degrade, got %+v", got)
	}
}
