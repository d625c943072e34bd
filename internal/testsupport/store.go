package testsupport

import (
	"context"
	"testing"
	"time"

	"txrmwatch/internal/config"
	"txrmwatch/internal/registry"
)

// MustOpenStore opens a registry.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Track registers a path in the store for tests, failing on error.
func Track(t testing.TB, store *registry.Store, path string, size int64) {
	t.Helper()

	if _, err := store.Track(context.Background(), path, size, time.Now().UTC(), ""); err != nil {
		t.Fatalf("store.Track(%s): %v", path, err)
	}
}
