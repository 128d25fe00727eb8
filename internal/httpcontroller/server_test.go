package httpcontroller

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akoskinen/devserve/internal/conf"
)

// newTestSettings builds validated settings rooted in a fresh temp dir.
// mutate runs before validation so tests can adjust allow/deny/aliases.
func newTestSettings(t *testing.T, mutate func(*conf.Settings)) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{}
	settings.Server.Host = "localhost"
	settings.Server.Port = "5183"
	settings.Server.Root = t.TempDir()
	settings.Server.Strict = true
	if mutate != nil {
		mutate(settings)
	}
	require.NoError(t, conf.ValidateSettings(settings))
	return settings
}

func newTestServer(t *testing.T, settings *conf.Settings) *Server {
	t.Helper()

	s, err := New(settings)
	require.NoError(t, err, "server construction failed")
	return s
}

// get performs a request against the full middleware chain.
func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// writeFile creates a file with parent directories as needed.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
