package catalogaccess

import (
	"context"
	"errors"
	"time"

	"appdeck/internal/catalog"
	"appdeck/internal/engine"
	"appdeck/internal/ipc"
	"appdeck/internal/overrides"
)

// Mode names reported by Access.Mode.
const (
	ModeDaemon = "daemon"
	ModeLocal  = "local"
)

// Access provides catalog operations regardless of daemon or in-process backing.
type Access interface {
	Mode() string
	List(ctx context.Context, search string) (engine.Snapshot, error)
	Scan(ctx context.Context) (engine.Snapshot, error)
	Refresh(ctx context.Context) (engine.Snapshot, error)
	SetPath(ctx context.Context, id, path string) error
	ClearPath(ctx context.Context, id string) error
	AddPortable(ctx context.Context, name, path, publisher string) (catalog.Portable, error)
	RemovePortable(ctx context.Context, id string) error
	Portables(ctx context.Context) ([]catalog.Portable, error)
	Import(ctx context.Context, m overrides.Manifest) (engine.ImportResult, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client, poll: 100 * time.Millisecond}
}

// NewLocalAccess returns an Access that scans in-process on every read.
func NewLocalAccess(eng *engine.Engine, store overrides.Store) Access {
	return &localAccess{engine: eng, store: store}
}

type ipcAccess struct {
	client *ipc.Client
	poll   time.Duration
}

func (a *ipcAccess) Mode() string { return ModeDaemon }

// List waits for the daemon's first scan when it has not published yet.
func (a *ipcAccess) List(ctx context.Context, search string) (engine.Snapshot, error) {
	for {
		resp, err := a.client.List(search)
		if err != nil {
			return engine.Snapshot{}, err
		}
		if resp.Ready {
			return resp.Snapshot, nil
		}
		select {
		case <-ctx.Done():
			return engine.Snapshot{}, errors.Join(errors.New("daemon has not published a catalog yet"), ctx.Err())
		case <-time.After(a.poll):
		}
	}
}

func (a *ipcAccess) Scan(_ context.Context) (engine.Snapshot, error) {
	resp, err := a.client.Scan()
	if err != nil {
		return engine.Snapshot{}, err
	}
	return resp.Snapshot, nil
}

func (a *ipcAccess) Refresh(_ context.Context) (engine.Snapshot, error) {
	resp, err := a.client.Refresh()
	if err != nil {
		return engine.Snapshot{}, err
	}
	return resp.Snapshot, nil
}

func (a *ipcAccess) SetPath(_ context.Context, id, path string) error {
	return a.client.SetPath(id, path)
}

func (a *ipcAccess) ClearPath(_ context.Context, id string) error {
	return a.client.ClearPath(id)
}

func (a *ipcAccess) AddPortable(_ context.Context, name, path, publisher string) (catalog.Portable, error) {
	return a.client.AddPortable(name, path, publisher)
}

func (a *ipcAccess) RemovePortable(_ context.Context, id string) error {
	return a.client.RemovePortable(id)
}

func (a *ipcAccess) Portables(_ context.Context) ([]catalog.Portable, error) {
	return a.client.Portables()
}

func (a *ipcAccess) Import(_ context.Context, m overrides.Manifest) (engine.ImportResult, error) {
	return a.client.Import(m)
}

type localAccess struct {
	engine *engine.Engine
	store  overrides.Store
}

func (a *localAccess) Mode() string { return ModeLocal }

func (a *localAccess) List(ctx context.Context, search string) (engine.Snapshot, error) {
	snap, err := a.engine.Scan(ctx)
	if err != nil {
		return engine.Snapshot{}, err
	}
	if search != "" {
		snap.Entries = snap.Search(search)
	}
	return snap, nil
}

func (a *localAccess) Scan(ctx context.Context) (engine.Snapshot, error) {
	return a.engine.Scan(ctx)
}

// Refresh has no published catalog to refresh in-process, so it scans.
func (a *localAccess) Refresh(ctx context.Context) (engine.Snapshot, error) {
	return a.engine.Scan(ctx)
}

func (a *localAccess) SetPath(ctx context.Context, id, path string) error {
	return a.engine.SetOverridePath(ctx, id, path)
}

func (a *localAccess) ClearPath(ctx context.Context, id string) error {
	return a.engine.ClearOverridePath(ctx, id)
}

func (a *localAccess) AddPortable(ctx context.Context, name, path, publisher string) (catalog.Portable, error) {
	return a.engine.RegisterPortable(ctx, name, path, publisher)
}

func (a *localAccess) RemovePortable(ctx context.Context, id string) error {
	return a.engine.RemovePortable(ctx, id)
}

func (a *localAccess) Portables(ctx context.Context) ([]catalog.Portable, error) {
	return a.store.Portables(ctx)
}

func (a *localAccess) Import(ctx context.Context, m overrides.Manifest) (engine.ImportResult, error) {
	return a.engine.ImportManifest(ctx, m)
}
