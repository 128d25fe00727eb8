package httpcontroller

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/akoskinen/devserve/internal/access"
	"github.com/akoskinen/devserve/internal/urlres"
)

// StaticRouteMiddleware serves root-relative asset requests. Per request it
// runs skip checks, resolves the URL to a filesystem path, enforces the
// access boundary once on the final resolved path, rewrites the effective
// URL when an alias applied, and delegates to the project-root file server.
func (s *Server) StaticRouteMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				return next(c)
			}

			pathname := r.URL.Path
			cleaned := path.Clean(pathname)
			switch {
			case strings.HasSuffix(pathname, "/"):
				// directory requests belong to the markup handler
				return next(c)
			case path.Ext(cleaned) == ".html":
				// document-root requests are fully owned by the
				// markup transform handler earlier in the chain
				return next(c)
			case isReservedRequest(cleaned):
				return next(c)
			}

			res, err := s.resolver.Resolve(r.URL.RequestURI())
			if err != nil {
				// not a URL this surface understands, let the
				// rest of the chain decide
				return next(c)
			}

			decision, err := s.enforceAccess(c, res.FSPath, routeStatic)
			if err != nil {
				return err
			}
			switch decision {
			case AccessDeniedExists:
				return nil
			case AccessDeniedAbsent:
				return next(c)
			}

			// The check above was made against the final resolved path;
			// nothing below re-derives or re-checks it.
			exists, err := access.Probe(res.FSPath)
			if err != nil {
				return err
			}
			if !exists {
				return next(c)
			}

			if res.Rewritten {
				s.metrics.FSAccess.RecordAliasRewrite()
			}
			// Serve exactly the pathname that was checked. Query and
			// fragment are untouched; the file server ignores them.
			r.URL.Path = res.ServePath
			r.URL.RawPath = urlres.EncodePathname(res.ServePath)

			s.metrics.FSAccess.RecordAllowed(routeStatic)
			s.staticServer.ServeHTTP(c.Response(), r)
			return nil
		}
	}
}
