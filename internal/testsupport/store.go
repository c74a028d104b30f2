package testsupport

import (
	"testing"

	"appdeck/internal/config"
	"appdeck/internal/logging"
	"appdeck/internal/overrides"
)

// MustOpenStore opens the configured override store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) overrides.Store {
	t.Helper()

	store, err := overrides.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("overrides.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
