package testsupport

import (
	"testing"

	"gantry/internal/catalog"
	"gantry/internal/config"
)

// MustOpenCatalog opens an episode catalog under the config's log dir and
// registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.Paths.LogDir)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close catalog: %v", err)
		}
	})
	return store
}
