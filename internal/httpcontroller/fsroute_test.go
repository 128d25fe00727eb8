package httpcontroller

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akoskinen/devserve/internal/conf"
)

func TestEscapeServesAllowedAbsolutePath(t *testing.T) {
	t.Parallel()

	shared := t.TempDir()
	writeFile(t, filepath.Join(shared, "lib.js"), "shared lib")

	settings := newTestSettings(t, func(settings *conf.Settings) {
		settings.Server.Allow = []string{shared}
	})
	s := newTestServer(t, settings)

	rec := get(s, "/@fs"+shared+"/lib.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shared lib", rec.Body.String())
}

func TestEscapePathNotNestedUnderRoot(t *testing.T) {
	t.Parallel()

	shared := t.TempDir()
	writeFile(t, filepath.Join(shared, "lib.js"), "outside root")

	settings := newTestSettings(t, func(settings *conf.Settings) {
		settings.Server.Allow = []string{shared}
	})
	// Same relative layout inside the root; if the escape path were
	// wrongly joined to the root this nested copy would be served.
	s := newTestServer(t, settings)
	writeFile(t, filepath.Join(settings.Server.Root, shared, "lib.js"), "nested copy")

	rec := get(s, "/@fs"+shared+"/lib.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "outside root", rec.Body.String())
}

func TestEscapeOutsideAllowListForbidden(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "passwd"), "root:x:0:0")

	s := newTestServer(t, newTestSettings(t, nil))

	rec := get(s, "/@fs"+outside+"/passwd")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "403 Restricted")
	assert.NotContains(t, rec.Body.String(), "root:x:0:0")
}

func TestEscapeDeniedAbsentPassesThrough(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	s := newTestServer(t, newTestSettings(t, nil))

	denied := get(s, "/@fs"+outside+"/missing.js")
	unmatched := get(s, "/no/such/route.js")

	assert.Equal(t, http.StatusNotFound, denied.Code)
	assert.Equal(t, unmatched.Body.String(), denied.Body.String())
	assert.NotContains(t, denied.Body.String(), "403")
}

func TestEscapeDoubledLeadingSlashNormalized(t *testing.T) {
	t.Parallel()

	shared := t.TempDir()
	writeFile(t, filepath.Join(shared, "lib.js"), "doubled")

	settings := newTestSettings(t, func(settings *conf.Settings) {
		settings.Server.Allow = []string{shared}
	})
	s := newTestServer(t, settings)

	rec := get(s, "//@fs"+shared+"/lib.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doubled", rec.Body.String())
}

func TestEscapeNonStrictServesWithoutAllowList(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "anything.js"), "trusted")

	settings := newTestSettings(t, func(settings *conf.Settings) {
		settings.Server.Strict = false
	})
	s := newTestServer(t, settings)

	rec := get(s, "/@fs"+outside+"/anything.js")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNonEscapeInternalPathUntouched(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, newTestSettings(t, nil))

	// Not the escape prefix, so the escape route must not claim it.
	rec := get(s, "/@fsx/etc/hosts")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
