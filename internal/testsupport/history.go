package testsupport

import (
	"testing"

	"reshelf/internal/config"
	"reshelf/internal/history"
)

// MustOpenHistory opens a history store for the given config and registers
// cleanup with the test.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
