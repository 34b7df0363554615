package testsupport

import (
	"context"
	"testing"

	"cropflow/internal/config"
	"cropflow/internal/registry"
)

// MustOpenRegistry opens the registry described by cfg and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) registry.Store {
	t.Helper()

	store, err := registry.OpenFromConfig(cfg, "test-run", nil)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedRegistry saves entries as the registry content.
func SeedRegistry(t testing.TB, store registry.Store, entries ...registry.Entry) {
	t.Helper()

	if err := store.Save(context.Background(), registry.Snapshot(entries)); err != nil {
		t.Fatalf("seed registry: %v", err)
	}
}
