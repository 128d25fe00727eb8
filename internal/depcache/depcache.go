// Package depcache tracks the pre-bundled dependency artifacts the server
// produces under the project's cache directory. Files in the cache were
// written by the server itself, so the access boundary treats them as
// pre-vetted and skips the allow-list for them. The registry exposes only the
// narrow Contains capability to keep the boundary decoupled from bundling.
package depcache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/akoskinen/devserve/internal/errors"
)

// CacheDirName is the per-project cache directory, relative to the root.
const CacheDirName = ".devserve"

// Registry records the dependency cache directory and any extra artifact
// paths registered by the bundling pipeline. Safe for concurrent use.
type Registry struct {
	dir string

	mu      sync.RWMutex
	entries map[string]struct{}
}

// New creates a registry for the given project root. The cache directory is
// created if missing so the first bundle run has somewhere to write.
func New(root string) (*Registry, error) {
	dir := filepath.Join(root, CacheDirName, "deps")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(err).
			Component("depcache").
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Build()
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = filepath.Clean(dir)
	}

	return &Registry{
		dir:     resolved,
		entries: make(map[string]struct{}),
	}, nil
}

// Dir returns the canonical dependency cache directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Register marks an artifact outside the cache directory itself as
// pre-vetted. Used for temporary bundle output directories during re-bundles.
func (r *Registry) Register(absPath string) error {
	if !filepath.IsAbs(absPath) {
		return errors.Newf("artifact path %q must be absolute", absPath).
			Component("depcache").
			Category(errors.CategoryValidation).
			Build()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[filepath.Clean(absPath)] = struct{}{}
	return nil
}

// Contains reports whether absPath is a pre-vetted artifact: inside the
// cache directory or under a registered path. Satisfies access.SafePathFn.
func (r *Registry) Contains(absPath string) bool {
	p := filepath.Clean(absPath)
	if within(r.dir, p) {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for entry := range r.entries {
		if within(entry, p) {
			return true
		}
	}
	return false
}

func within(base, target string) bool {
	return target == base || strings.HasPrefix(target, base+string(filepath.Separator))
}
