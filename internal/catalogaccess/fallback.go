package catalogaccess

import (
	"fmt"

	"appdeck/internal/engine"
	"appdeck/internal/ipc"
	"appdeck/internal/overrides"
)

// Session represents a catalog access handle and its cleanup function.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// LocalOpener builds an in-process engine and the store it writes to.
type LocalOpener func() (*engine.Engine, overrides.Store, error)

// OpenWithFallback tries the daemon first, then falls back to an in-process engine.
func OpenWithFallback(dial func() (*ipc.Client, error), openLocal LocalOpener) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{
				Access: NewIPCAccess(client),
				close:  client.Close,
			}, nil
		}
	}

	if openLocal == nil {
		return Session{}, fmt.Errorf("open catalog: no local opener configured")
	}
	eng, store, err := openLocal()
	if err != nil {
		return Session{}, fmt.Errorf("open catalog: %w", err)
	}
	return Session{
		Access: NewLocalAccess(eng, store),
		close:  store.Close,
	}, nil
}
