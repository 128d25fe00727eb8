// Package access implements the filesystem access boundary of the asset
// server: a pure predicate deciding whether a resolved absolute path may be
// disclosed to a client. The decision order is fixed: non-strict mode allows
// everything, deny patterns override all allows, pre-vetted safe paths bypass
// the allow-list, and finally the path must live under one of the configured
// allow roots. All comparisons run on canonicalized paths so traversal
// sequences and symlink indirection cannot produce a false allow.
package access

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/akoskinen/devserve/internal/errors"
)

// SafePathFn reports whether a path was pre-vetted by another subsystem and
// may bypass the allow-list. Injected as a narrow capability so the guard
// stays decoupled from that subsystem's internals.
type SafePathFn func(absPath string) bool

// Config carries the read-only server configuration the guard consumes.
type Config struct {
	Strict     bool
	AllowRoots []string   // ordered list of absolute directories
	Deny       []string   // regexp patterns, matched against canonical slash paths
	SafePath   SafePathFn // optional, nil means no safe-path capability
}

// Guard is the access-control predicate. Immutable after construction and
// safe for concurrent use; canonicalization results are memoized in an
// expiring cache.
type Guard struct {
	strict     bool
	allowRoots []string // canonicalized at construction
	deny       []*regexp.Regexp
	safePath   SafePathFn
	cache      *gocache.Cache
}

// cache lifetimes match dev-server workloads: entries go stale when files
// move, which symlink churn makes possible, so keep them short.
const (
	cacheExpiration = 5 * time.Minute
	cacheCleanup    = 10 * time.Minute
)

// New builds a Guard from the configuration. Allow roots are canonicalized
// eagerly; deny patterns must compile or construction fails.
func New(cfg Config) (*Guard, error) {
	g := &Guard{
		strict:   cfg.Strict,
		safePath: cfg.SafePath,
		cache:    gocache.New(cacheExpiration, cacheCleanup),
	}

	for _, root := range cfg.AllowRoots {
		if root == "" || !filepath.IsAbs(root) {
			return nil, errors.Newf("allow root %q must be an absolute path", root).
				Component("access").
				Category(errors.CategoryConfiguration).
				Build()
		}
		g.allowRoots = append(g.allowRoots, g.Canonicalize(root))
	}

	for _, pattern := range cfg.Deny {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.New(err).
				Component("access").
				Category(errors.CategoryConfiguration).
				Context("pattern", pattern).
				Build()
		}
		g.deny = append(g.deny, re)
	}

	return g, nil
}

// Strict reports whether the boundary is enforced at all.
func (g *Guard) Strict() bool {
	return g.strict
}

// AllowRoots returns the canonicalized allow-list, in configuration order.
// The returned slice is a copy.
func (g *Guard) AllowRoots() []string {
	out := make([]string, len(g.allowRoots))
	copy(out, g.allowRoots)
	return out
}

// IsAllowed decides whether fsPath may be served. Pure with respect to the
// guard's state; never mutates configuration.
func (g *Guard) IsAllowed(fsPath string) bool {
	if !g.strict {
		// non-strict mode trusts all local requests
		return true
	}

	canonical := g.Canonicalize(fsPath)

	// deny beats allow, checked before anything can allow
	for _, re := range g.deny {
		if re.MatchString(filepath.ToSlash(canonical)) {
			return false
		}
	}

	// paths already vetted upstream skip the allow-list
	if g.safePath != nil && g.safePath(canonical) {
		return true
	}

	for _, root := range g.allowRoots {
		if isPathPrefix(root, canonical) {
			return true
		}
	}
	return false
}

// Canonicalize resolves path to its unique absolute form: relative segments
// eliminated, symlinks resolved. For paths that do not exist the nearest
// existing ancestor's symlinks are still resolved, so a nonexistent name
// inside a symlinked directory cannot dodge the comparison. Results are
// memoized.
func (g *Guard) Canonicalize(path string) string {
	trailing := strings.HasSuffix(path, string(filepath.Separator))

	if cached, found := g.cache.Get(path); found {
		return cached.(string)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	abs = filepath.Clean(abs)

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		resolved = resolveParentSymlinks(abs)
	}
	resolved = filepath.Clean(resolved)
	if trailing {
		resolved += string(filepath.Separator)
	}

	g.cache.Set(path, resolved, gocache.DefaultExpiration)
	return resolved
}

// resolveParentSymlinks resolves symlinks in the nearest existing ancestor
// when the full path cannot be resolved, e.g. when the file does not exist.
func resolveParentSymlinks(absTarget string) string {
	dir := filepath.Dir(absTarget)
	rest := filepath.Base(absTarget)

	for dir != "/" && dir != "." && dir != "" {
		if resolvedDir, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolvedDir, rest)
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = filepath.Dir(dir)
	}
	return absTarget
}

// isPathPrefix checks if target is within or equal to base.
func isPathPrefix(base, target string) bool {
	base = strings.TrimSuffix(base, string(filepath.Separator))
	target = strings.TrimSuffix(target, string(filepath.Separator))
	return target == base || strings.HasPrefix(target, base+string(filepath.Separator))
}

// Probe reports whether fsPath exists, distinguishing a missing file from
// other I/O failures. Not-found results map to (false, nil); anything else
// is a real error the caller must surface.
func Probe(fsPath string) (bool, error) {
	_, err := os.Stat(strings.TrimSuffix(fsPath, string(filepath.Separator)))
	switch {
	case err == nil:
		return true, nil
	case errors.IsNotFound(err):
		return false, nil
	default:
		return false, errors.New(err).
			Component("access").
			Category(errors.CategoryFileIO).
			Context("path", fsPath).
			Build()
	}
}
