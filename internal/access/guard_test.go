package access

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T, cfg Config) *Guard {
	t.Helper()

	g, err := New(cfg)
	require.NoError(t, err, "guard construction failed")
	return g
}

func TestNonStrictAllowsEverything(t *testing.T) {
	t.Parallel()

	g := newGuard(t, Config{Strict: false})
	assert.True(t, g.IsAllowed("/etc/shadow"))
	assert.True(t, g.IsAllowed("/anything/at/all"))
}

func TestAllowRootDescendants(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	g := newGuard(t, Config{Strict: true, AllowRoots: []string{root}})

	assert.True(t, g.IsAllowed(filepath.Join(root, "index.js")))
	assert.True(t, g.IsAllowed(filepath.Join(root, "deep", "nested", "file.css")))
	assert.True(t, g.IsAllowed(root), "the root itself is allowed")
}

func TestOutsideAllowRootsDenied(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outside := t.TempDir()
	g := newGuard(t, Config{Strict: true, AllowRoots: []string{root}})

	assert.False(t, g.IsAllowed(filepath.Join(outside, "file.js")))
	assert.False(t, g.IsAllowed("/etc/shadow"))
}

func TestSiblingWithSharedPrefixDenied(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "app")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "app-secrets"), 0o755))

	g := newGuard(t, Config{Strict: true, AllowRoots: []string{root}})
	assert.False(t, g.IsAllowed(filepath.Join(base, "app-secrets", "key.pem")))
}

func TestDenyBeatsAllow(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	envFile := filepath.Join(root, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SECRET=1"), 0o600))

	g := newGuard(t, Config{
		Strict:     true,
		AllowRoots: []string{root},
		Deny:       []string{`\.env(\..*)?$`},
	})

	assert.False(t, g.IsAllowed(envFile), "deny pattern overrides allow root")
	assert.True(t, g.IsAllowed(filepath.Join(root, "app.js")))
}

func TestDenyBeatsSafePath(t *testing.T) {
	t.Parallel()

	g := newGuard(t, Config{
		Strict: true,
		Deny:   []string{`secret`},
		SafePath: func(string) bool {
			return true
		},
	})

	assert.False(t, g.IsAllowed("/cache/secret.js"), "deny is evaluated before the safe-path bypass")
}

func TestSafePathBypassesAllowList(t *testing.T) {
	t.Parallel()

	vetted := t.TempDir()
	g := newGuard(t, Config{
		Strict: true,
		SafePath: func(p string) bool {
			return p == filepath.Join(vetted, "dep.js")
		},
	})

	assert.True(t, g.IsAllowed(filepath.Join(vetted, "dep.js")))
	assert.False(t, g.IsAllowed(filepath.Join(vetted, "other.js")))
}

func TestTraversalInvariance(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "app")
	require.NoError(t, os.MkdirAll(root, 0o755))
	secret := filepath.Join(base, "secret")
	require.NoError(t, os.MkdirAll(secret, 0o755))

	g := newGuard(t, Config{Strict: true, AllowRoots: []string{root}})

	traversal := filepath.Join(root, "..", "secret", "key.pem")
	direct := filepath.Join(secret, "key.pem")
	assert.Equal(t, g.IsAllowed(direct), g.IsAllowed(traversal),
		"a traversal spelling must decide exactly like the canonical spelling")
	assert.False(t, g.IsAllowed(traversal))
}

func TestSymlinkEscapeDenied(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "app")
	require.NoError(t, os.MkdirAll(root, 0o755))
	outside := filepath.Join(base, "private")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "creds.txt"), []byte("x"), 0o600))

	link := filepath.Join(root, "escape")
	require.NoError(t, os.Symlink(outside, link))

	g := newGuard(t, Config{Strict: true, AllowRoots: []string{root}})
	assert.False(t, g.IsAllowed(filepath.Join(link, "creds.txt")),
		"a symlink inside the root must not expose its target")
}

func TestSymlinkedAllowRootAccepted(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	real := filepath.Join(base, "real")
	require.NoError(t, os.MkdirAll(real, 0o755))
	alias := filepath.Join(base, "alias")
	require.NoError(t, os.Symlink(real, alias))

	// Configured through the symlink, requested through the real path.
	g := newGuard(t, Config{Strict: true, AllowRoots: []string{alias}})
	assert.True(t, g.IsAllowed(filepath.Join(real, "file.js")))
}

func TestCanonicalizeNonexistentPath(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	real := filepath.Join(base, "real")
	require.NoError(t, os.MkdirAll(real, 0o755))
	alias := filepath.Join(base, "alias")
	require.NoError(t, os.Symlink(real, alias))

	g := newGuard(t, Config{Strict: true})

	// The file does not exist, but the symlinked parent must still resolve.
	got := g.Canonicalize(filepath.Join(alias, "missing.js"))
	assert.Equal(t, filepath.Join(mustEval(t, real), "missing.js"), got)
}

func TestCanonicalizeMemoized(t *testing.T) {
	t.Parallel()

	g := newGuard(t, Config{Strict: true})
	p := filepath.Join(t.TempDir(), "a", "..", "b")
	first := g.Canonicalize(p)
	second := g.Canonicalize(p)
	assert.Equal(t, first, second)
	assert.NotContains(t, first, "..")
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Strict: true, AllowRoots: []string{"relative/path"}})
	require.Error(t, err)

	_, err = New(Config{Strict: true, Deny: []string{"(["}})
	require.Error(t, err)
}

func TestProbe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "exists.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	exists, err := Probe(file)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = Probe(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.False(t, exists)
}

// mustEval resolves symlinks, failing the test on error. macOS tempdirs live
// behind /var -> /private/var, so expectations must be canonicalized too.
func mustEval(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return resolved
}
