// Package urlres resolves raw request URLs into filesystem paths for the
// asset server. It applies the configured alias rules, recognizes the /@fs/
// escape prefix for requests that intentionally target paths outside the
// project root, and normalizes the result into an absolute path that the
// access boundary can check once.
package urlres

import (
	"net/url"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/akoskinen/devserve/internal/conf"
	"github.com/akoskinen/devserve/internal/errors"
)

// FSPrefix marks a request that resolves against the filesystem root instead
// of the project root.
const FSPrefix = "/@fs/"

// InternalPrefix is the reserved URL namespace owned by the surrounding
// server (virtual modules, client runtime, the escape prefix). The static
// route must never claim paths under it.
const InternalPrefix = "/@"

// windowsDrivePaths is true on platforms using drive-letter absolute paths.
var windowsDrivePaths = runtime.GOOS == "windows"

var (
	leadingSlashesRE = regexp.MustCompile(`^/{2,}`)
	driveArtifactRE  = regexp.MustCompile(`^/[A-Za-z]:`)
)

// ResolvedRequest is the per-request output of Resolve. It is created per
// request and discarded; nothing here outlives the request.
type ResolvedRequest struct {
	RawPathname      string // pathname as received, percent-encoding intact
	DecodedPathname  string // percent-decoded pathname, before aliases
	Pathname         string // root-relative pathname after aliases and root stripping
	IsEscapeRequest  bool   // request used the /@fs/ escape prefix
	FSPath           string // absolute filesystem path to check and serve
	ServePath        string // URL path handed to the delegated file server
	HadTrailingSlash bool   // original pathname ended in a separator
	Rewritten        bool   // an alias rule changed the pathname
}

// rule is a compiled alias rule. Ordered, first structural match wins.
type rule struct {
	find        string
	pattern     *regexp.Regexp
	replacement string
}

// Resolver turns raw request URLs into ResolvedRequests. It is immutable
// after construction and safe for concurrent use.
type Resolver struct {
	root  string // absolute project root
	rules []rule
}

// New compiles the alias rules and returns a Resolver for the given project
// root. Malformed patterns fail here, at startup.
func New(root string, aliasRules []conf.AliasRule) (*Resolver, error) {
	rules := make([]rule, 0, len(aliasRules))
	for _, r := range aliasRules {
		if r.Find == "" {
			return nil, errors.Newf("alias rule has an empty find").
				Component("urlres").
				Category(errors.CategoryConfiguration).
				Build()
		}
		if r.Regex {
			re, err := regexp.Compile(r.Find)
			if err != nil {
				return nil, errors.New(err).
					Component("urlres").
					Category(errors.CategoryConfiguration).
					Context("pattern", r.Find).
					Build()
			}
			rules = append(rules, rule{pattern: re, replacement: r.Replacement})
			continue
		}
		rules = append(rules, rule{find: r.Find, replacement: r.Replacement})
	}
	return &Resolver{root: filepath.Clean(root), rules: rules}, nil
}

// Root returns the absolute project root the resolver joins against.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve parses rawURL (a request URI, possibly with a query string) and
// produces the resolved filesystem path. Escape detection happens on the
// pre-alias pathname; alias rules never apply to escape requests.
func (r *Resolver) Resolve(rawURL string) (*ResolvedRequest, error) {
	u, err := url.Parse(CollapseLeadingSlashes(rawURL))
	if err != nil {
		return nil, errors.New(err).
			Component("urlres").
			Category(errors.CategoryPathResolution).
			Context("url", rawURL).
			Build()
	}

	decoded := u.Path
	res := &ResolvedRequest{
		RawPathname:      u.EscapedPath(),
		DecodedPathname:  decoded,
		HadTrailingSlash: strings.HasSuffix(decoded, "/"),
	}

	if IsFSRequest(decoded) {
		res.IsEscapeRequest = true
		res.FSPath = FSPathFromPathname(decoded)
		res.ServePath = servePathFromPathname(decoded)
		res.Pathname = res.ServePath
		return res, nil
	}

	pathname, rewritten := r.applyRules(decoded)
	res.Rewritten = rewritten
	pathname = stripRootPrefix(pathname, r.root)
	if !strings.HasPrefix(pathname, "/") {
		pathname = "/" + pathname
	}
	res.Pathname = pathname
	res.ServePath = pathname

	fsPath := filepath.Join(r.root, filepath.FromSlash(strings.TrimPrefix(pathname, "/")))
	if res.HadTrailingSlash && !strings.HasSuffix(fsPath, string(filepath.Separator)) {
		// directory-serving hint for the downstream engine
		fsPath += string(filepath.Separator)
	}
	res.FSPath = fsPath
	return res, nil
}

// applyRules applies the ordered alias rules: the first rule that matches
// rewrites the pathname, later rules are not consulted. Exactly one
// occurrence is substituted, with capture group expansion for pattern rules.
func (r *Resolver) applyRules(pathname string) (rewritten string, applied bool) {
	for i := range r.rules {
		rl := &r.rules[i]
		if rl.pattern != nil {
			loc := rl.pattern.FindStringIndex(pathname)
			if loc == nil {
				continue
			}
			matched := pathname[loc[0]:loc[1]]
			out := pathname[:loc[0]] + rl.pattern.ReplaceAllString(matched, rl.replacement) + pathname[loc[1]:]
			return out, out != pathname
		}
		if strings.HasPrefix(pathname, rl.find) {
			out := rl.replacement + pathname[len(rl.find):]
			return out, out != pathname
		}
	}
	return pathname, false
}

// CollapseLeadingSlashes folds repeated leading slashes into a single one.
// Proxies and clients produce these, and they change path semantics if left
// alone.
func CollapseLeadingSlashes(rawURL string) string {
	return leadingSlashesRE.ReplaceAllString(rawURL, "/")
}

// IsFSRequest reports whether the decoded pathname targets the escape prefix.
func IsFSRequest(pathname string) bool {
	return pathname == strings.TrimSuffix(FSPrefix, "/") ||
		strings.HasPrefix(pathname, FSPrefix)
}

// IsInternalRequest reports whether the pathname is inside the reserved
// internal namespace.
func IsInternalRequest(pathname string) bool {
	return strings.HasPrefix(pathname, InternalPrefix)
}

// FSPathFromPathname strips the escape prefix and returns the absolute
// filesystem path the request targets. On Windows a pathname like
// /@fs/C:/Users/x carries the drive letter as its first segment.
func FSPathFromPathname(pathname string) string {
	p := strings.TrimPrefix(pathname, strings.TrimSuffix(FSPrefix, "/"))
	if p == "" {
		p = "/"
	}
	if windowsDrivePaths && driveArtifactRE.MatchString(p) {
		// /C:/Users/x -> C:/Users/x
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// servePathFromPathname strips the escape prefix and, on Windows, exactly one
// leading drive-letter segment introduced by the id-to-path conversion
// upstream. The result is the URL path handed to the filesystem-root-scoped
// file server. The strip is anchored and single-segment on purpose; anything
// broader would mangle paths containing colons elsewhere.
func servePathFromPathname(pathname string) string {
	p := strings.TrimPrefix(pathname, strings.TrimSuffix(FSPrefix, "/"))
	if p == "" {
		p = "/"
	}
	if windowsDrivePaths {
		p = driveArtifactRE.ReplaceAllString(p, "")
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
	}
	return p
}

// stripRootPrefix removes a literal leading project-root prefix from the
// pathname, segment-boundary aware, so the later join does not duplicate the
// root. Alias replacements commonly produce such pathnames.
func stripRootPrefix(pathname, root string) string {
	slashRoot := strings.TrimSuffix(filepath.ToSlash(root), "/")
	if slashRoot == "" {
		return pathname
	}
	switch {
	case pathname == slashRoot:
		return "/"
	case strings.HasPrefix(pathname, slashRoot+"/"):
		return pathname[len(slashRoot):]
	}
	return pathname
}

// EncodePathname re-encodes a decoded pathname for use as a request URL path.
func EncodePathname(pathname string) string {
	u := url.URL{Path: pathname}
	return u.EscapedPath()
}
