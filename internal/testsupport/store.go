package testsupport

import (
	"context"
	"testing"

	"docpress/internal/config"
	"docpress/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending job record for tests using the provided store.
func NewJob(t testing.TB, store *history.Store, token, command string, inputPaths ...string) *history.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), token, command, inputPaths, "", nil)
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
