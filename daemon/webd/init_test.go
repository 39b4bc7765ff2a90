package webd

import (
	"context"
	"net/http"
	"testing"

	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/params"
	"github.com/rotblauer/catfog/store"
)

// newTestWebDaemon creates a WebDaemon over an in-memory store holding m.
// Its router stops broadcasting when the test ends.
func newTestWebDaemon(t *testing.T, m *fog.Map) (*WebDaemon, http.Handler) {
	t.Helper()
	config := params.DefaultTestWebDaemonConfig()
	config.DataDir = t.TempDir()
	st, err := store.New(m, store.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	d := NewWebDaemon(config, st, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return d, d.NewRouter(ctx)
}
