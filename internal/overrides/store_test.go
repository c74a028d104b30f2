package overrides_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"appdeck/internal/catalog"
	"appdeck/internal/config"
	"appdeck/internal/logging"
	"appdeck/internal/overrides"
)

type backend struct {
	name string
	open func(t *testing.T, dir string) overrides.Store
}

func backends() []backend {
	return []backend{
		{"json", func(t *testing.T, dir string) overrides.Store {
			store, err := overrides.OpenJSON(dir, logging.NewNop())
			if err != nil {
				t.Fatalf("OpenJSON returned error: %v", err)
			}
			return store
		}},
		{"sqlite", func(t *testing.T, dir string) overrides.Store {
			store, err := overrides.OpenSQLite(filepath.Join(dir, "overrides.db"), logging.NewNop())
			if err != nil {
				t.Fatalf("OpenSQLite returned error: %v", err)
			}
			return store
		}},
	}
}

func TestStoreCustomPaths(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			store := b.open(t, dir)
			defer store.Close()

			paths, err := store.CustomPaths(ctx)
			if err != nil {
				t.Fatalf("CustomPaths returned error: %v", err)
			}
			if len(paths) != 0 {
				t.Fatalf("expected empty map, got %v", paths)
			}

			if err := store.SetCustomPath(ctx, "QmFyIFRvb2w", `C:\Bar\bar.exe`); err != nil {
				t.Fatalf("SetCustomPath returned error: %v", err)
			}
			if err := store.SetCustomPath(ctx, "QmFyIFRvb2w", `D:\Custom\bar2.exe`); err != nil {
				t.Fatalf("SetCustomPath returned error: %v", err)
			}
			if err := store.SetCustomPath(ctx, "Rm9v", `C:\Foo\foo.exe`); err != nil {
				t.Fatalf("SetCustomPath returned error: %v", err)
			}
			if err := store.SetCustomPath(ctx, " ", `C:\x.exe`); err == nil {
				t.Fatal("expected error for blank id")
			}

			if err := store.Close(); err != nil {
				t.Fatalf("Close returned error: %v", err)
			}
			store = b.open(t, dir)

			paths, err = store.CustomPaths(ctx)
			if err != nil {
				t.Fatalf("CustomPaths returned error: %v", err)
			}
			want := map[string]string{"QmFyIFRvb2w": `D:\Custom\bar2.exe`, "Rm9v": `C:\Foo\foo.exe`}
			if diff := cmp.Diff(want, paths); diff != "" {
				t.Fatalf("custom paths mismatch (-want +got):\n%s", diff)
			}

			if err := store.ClearCustomPath(ctx, "Rm9v"); err != nil {
				t.Fatalf("ClearCustomPath returned error: %v", err)
			}
			if err := store.ClearCustomPath(ctx, "Rm9v"); !errors.Is(err, overrides.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if len(store.Files()) == 0 {
				t.Fatal("expected store to report its files")
			}
		})
	}
}

func TestStorePortables(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			store := b.open(t, t.TempDir())
			defer store.Close()

			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			first, err := overrides.NewPortable("MyTool", `E:\tools\mytool.exe`, "", now)
			if err != nil {
				t.Fatalf("NewPortable returned error: %v", err)
			}
			second, err := overrides.NewPortable("Other", "/opt/other/run", "Acme", now.Add(time.Minute))
			if err != nil {
				t.Fatalf("NewPortable returned error: %v", err)
			}
			for _, p := range []catalog.Portable{first, second} {
				if err := store.AddPortable(ctx, p); err != nil {
					t.Fatalf("AddPortable returned error: %v", err)
				}
			}
			if err := store.AddPortable(ctx, first); !errors.Is(err, overrides.ErrInvalidPortable) {
				t.Fatalf("expected duplicate registration to fail, got %v", err)
			}

			if err := store.SetPortablePath(ctx, first.ID, `F:\moved\mytool.exe`); err != nil {
				t.Fatalf("SetPortablePath returned error: %v", err)
			}
			if err := store.SetPortablePath(ctx, "portable_missing", `F:\x.exe`); !errors.Is(err, overrides.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			got, err := store.Portables(ctx)
			if err != nil {
				t.Fatalf("Portables returned error: %v", err)
			}
			first.Path = `F:\moved\mytool.exe`
			first.InstallLocation = `F:\moved`
			if diff := cmp.Diff([]catalog.Portable{first, second}, got); diff != "" {
				t.Fatalf("portables mismatch (-want +got):\n%s", diff)
			}

			if err := store.RemovePortable(ctx, first.ID); err != nil {
				t.Fatalf("RemovePortable returned error: %v", err)
			}
			if err := store.RemovePortable(ctx, first.ID); !errors.Is(err, overrides.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			got, err = store.Portables(ctx)
			if err != nil {
				t.Fatalf("Portables returned error: %v", err)
			}
			if len(got) != 1 || got[0].ID != second.ID {
				t.Fatalf("unexpected portables after removal: %+v", got)
			}
		})
	}
}

func TestNewPortableDefaults(t *testing.T) {
	p, err := overrides.NewPortable("  MyTool ", `E:\mytool.exe`, " ", time.Now())
	if err != nil {
		t.Fatalf("NewPortable returned error: %v", err)
	}
	if !overrides.IsPortableID(p.ID) || len(p.ID) <= len(overrides.PortableIDPrefix) {
		t.Fatalf("unexpected id %q", p.ID)
	}
	if p.Name != "MyTool" || p.Publisher != overrides.DefaultPortablePublisher || p.InstallLocation != `E:` {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	other, err := overrides.NewPortable("MyTool", `E:\mytool.exe`, "", time.Now())
	if err != nil {
		t.Fatalf("NewPortable returned error: %v", err)
	}
	if other.ID == p.ID {
		t.Fatal("expected fresh ids for every registration")
	}

	if _, err := overrides.NewPortable("", "/x", "", time.Now()); !errors.Is(err, overrides.ErrInvalidPortable) {
		t.Fatalf("expected ErrInvalidPortable for missing name, got %v", err)
	}
	if _, err := overrides.NewPortable("x", "", "", time.Now()); !errors.Is(err, overrides.ErrInvalidPortable) {
		t.Fatalf("expected ErrInvalidPortable for missing path, got %v", err)
	}
}

func TestJSONStoreReadsLegacyDocuments(t *testing.T) {
	dir := t.TempDir()
	custom := "\xef\xbb\xbf{\"Rm9v\": \"C:\\\\Foo\\\\foo.exe\"}"
	portables := `{"portables": [{"id": "portable_1", "name": "MyTool", "path": "E:\\mytool.exe", "publisher": "Portable", "isPortable": true}]}`
	if err := os.WriteFile(filepath.Join(dir, "customPaths.json"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "portableApps.json"), []byte(portables), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := overrides.OpenJSON(dir, nil)
	if err != nil {
		t.Fatalf("OpenJSON returned error: %v", err)
	}
	ctx := context.Background()
	paths, err := store.CustomPaths(ctx)
	if err != nil {
		t.Fatalf("CustomPaths returned error: %v", err)
	}
	if paths["Rm9v"] != `C:\Foo\foo.exe` {
		t.Fatalf("unexpected custom paths: %v", paths)
	}
	got, err := store.Portables(ctx)
	if err != nil {
		t.Fatalf("Portables returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "portable_1" || got[0].Path != `E:\mytool.exe` {
		t.Fatalf("unexpected portables: %+v", got)
	}
}

func TestJSONStoreReportsCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "customPaths.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := overrides.OpenJSON(dir, nil)
	if err != nil {
		t.Fatalf("OpenJSON returned error: %v", err)
	}
	if _, err := store.CustomPaths(context.Background()); err == nil || !strings.Contains(err.Error(), "customPaths.json") {
		t.Fatalf("expected parse error naming the file, got %v", err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()

	cfg.Store.Backend = "sqlite"
	store, err := overrides.Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, ok := store.(*overrides.SQLiteStore); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	_ = store.Close()

	cfg.Store.Backend = "json"
	store, err = overrides.Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, ok := store.(*overrides.JSONStore); !ok {
		t.Fatalf("expected json store, got %T", store)
	}

	cfg.Store.Backend = "redis"
	if _, err := overrides.Open(&cfg, nil); err == nil {
		t.Fatal("expected unsupported backend error")
	}
}

func TestParseManifest(t *testing.T) {
	input := `
portables:
  - name: MyTool
    path: 'E:\tools\mytool.exe'
  - name: Other
    path: /opt/other/run
    publisher: Acme
custom_paths:
  Bar Tool: 'D:\Custom\bar2.exe'
`
	m, err := overrides.ParseManifest(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseManifest returned error: %v", err)
	}
	want := overrides.Manifest{
		Portables: []overrides.ManifestPortable{
			{Name: "MyTool", Path: `E:\tools\mytool.exe`},
			{Name: "Other", Path: "/opt/other/run", Publisher: "Acme"},
		},
		CustomPaths: map[string]string{"Bar Tool": `D:\Custom\bar2.exe`},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}

	if _, err := overrides.ParseManifest(strings.NewReader("portables:\n  - name: NoPath\n")); !errors.Is(err, overrides.ErrInvalidPortable) {
		t.Fatalf("expected ErrInvalidPortable, got %v", err)
	}
	if _, err := overrides.ParseManifest(strings.NewReader("unknown: 1\n")); err == nil {
		t.Fatal("expected unknown field error")
	}
	if m, err := overrides.ParseManifest(strings.NewReader("")); err != nil || len(m.Portables) != 0 {
		t.Fatalf("expected empty manifest, got %+v, %v", m, err)
	}
}
