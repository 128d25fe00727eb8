package httpcontroller

import (
	"github.com/labstack/echo/v4"

	"github.com/akoskinen/devserve/internal/urlres"
)

// EscapeRouteMiddleware serves /@fs/ requests, which deliberately target
// absolute paths outside the project root. It shares the exact same guard
// and denial responder as the static route; a weaker escape-route check
// would be a correctness bug.
func (s *Server) EscapeRouteMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()

			pathname := urlres.CollapseLeadingSlashes(r.URL.Path)
			if !urlres.IsFSRequest(pathname) {
				return next(c)
			}

			res, err := s.resolver.Resolve(r.URL.RequestURI())
			if err != nil {
				return err
			}
			s.metrics.FSAccess.RecordEscapeRequest()

			decision, err := s.enforceAccess(c, res.FSPath, routeFS)
			if err != nil {
				return err
			}
			switch decision {
			case AccessDeniedExists:
				return nil
			case AccessDeniedAbsent:
				return next(c)
			}

			// Rewrite to the prefix-free absolute path and delegate to
			// the filesystem-root-scoped engine.
			r.URL.Path = res.ServePath
			r.URL.RawPath = urlres.EncodePathname(res.ServePath)

			s.metrics.FSAccess.RecordAllowed(routeFS)
			s.fsServer.ServeHTTP(c.Response(), r)
			return nil
		}
	}
}
