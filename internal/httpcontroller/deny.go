package httpcontroller

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/akoskinen/devserve/internal/access"
)

// AccessDecision is the outcome of enforcing the access boundary for one
// resolved path.
type AccessDecision int

const (
	// AccessAllowed means the caller may delegate to the serving engine.
	AccessAllowed AccessDecision = iota
	// AccessDeniedExists means a 403 response has been written.
	AccessDeniedExists
	// AccessDeniedAbsent means the caller must pass the request to the
	// next handler, exactly as if the route had never matched.
	AccessDeniedAbsent
)

const (
	routeStatic = "static"
	routeFS     = "fs"

	outcomeForbidden   = "forbidden"
	outcomePassthrough = "passthrough"
)

// enforceAccess runs the single access check for fsPath and handles denial.
// A denied path that exists gets a 403 page; a denied path that does not
// exist produces no visible signal, so the boundary cannot be used as an
// oracle for probing which out-of-allow-list files exist. Probe failures
// other than not-found propagate to the generic error path.
func (s *Server) enforceAccess(c echo.Context, fsPath, route string) (AccessDecision, error) {
	if s.guard.IsAllowed(fsPath) {
		return AccessAllowed, nil
	}

	exists, err := access.Probe(fsPath)
	if err != nil {
		return AccessDeniedAbsent, err
	}
	if !exists {
		s.metrics.FSAccess.RecordDenied(route, outcomePassthrough)
		return AccessDeniedAbsent, nil
	}

	s.metrics.FSAccess.RecordDenied(route, outcomeForbidden)
	return AccessDeniedExists, s.respondRestricted(c, fsPath)
}

// respondRestricted writes the 403 page and logs the denial. The response is
// only written once even if a late-canceling connection retries the path.
func (s *Server) respondRestricted(c echo.Context, fsPath string) error {
	rawURL := c.Request().URL.RequestURI()

	s.webLogger.Error("Restricted file request denied",
		"url", rawURL,
		"fs_path", fsPath,
	)
	s.allowHintOnce.Do(func() {
		s.webLogger.Warn("Requests for files outside the allow-list are denied; add directories to server.allow in devserve.yaml to serve them",
			"allow", s.guard.AllowRoots(),
		)
	})

	if c.Response().Committed {
		return nil
	}
	return c.HTML(http.StatusForbidden, restrictedPage(rawURL, s.guard.AllowRoots()))
}

// restrictedPage renders the denial body. The request URL is attacker
// controlled and must never reach the page unescaped.
func restrictedPage(rawURL string, allowRoots []string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><title>403 Restricted</title></head>\n<body>\n")
	b.WriteString("<h1>403 Restricted</h1>\n")
	fmt.Fprintf(&b, "<p>The request url &quot;%s&quot; is outside of the server allow-list.</p>\n", html.EscapeString(rawURL))
	b.WriteString("<p>Directories currently allowed:</p>\n<ul>\n")
	for _, root := range allowRoots {
		fmt.Fprintf(&b, "<li><code>%s</code></li>\n", html.EscapeString(root))
	}
	b.WriteString("</ul>\n<p>Add the directory to <code>server.allow</code> in devserve.yaml to serve it.</p>\n")
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
