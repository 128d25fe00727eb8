// internal/httpcontroller/server.go
package httpcontroller

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/akoskinen/devserve/internal/access"
	"github.com/akoskinen/devserve/internal/conf"
	"github.com/akoskinen/devserve/internal/depcache"
	"github.com/akoskinen/devserve/internal/logging"
	"github.com/akoskinen/devserve/internal/observability"
	"github.com/akoskinen/devserve/internal/urlres"
)

// MetricsPath is where the Prometheus endpoint is mounted. It lives inside
// the reserved namespace so the static route never claims it.
const MetricsPath = "/__devserve/metrics"

// reservedPrefixes are request prefixes owned by the surrounding server.
// The static route must skip them; other handlers own these paths.
var reservedPrefixes = []string{urlres.InternalPrefix, "/__devserve"}

// Server encapsulates the Echo server and the filesystem access boundary.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings
	DepCache *depcache.Registry

	resolver *urlres.Resolver
	guard    *access.Guard
	metrics  *observability.Metrics

	// Delegated serving engines. staticServer is scoped to the project
	// root, fsServer to the filesystem root for escape requests.
	staticServer http.Handler
	fsServer     http.Handler

	webLogger      *slog.Logger
	webLoggerClose func() error
	allowHintOnce  sync.Once
}

// New initializes a new HTTP server from validated settings.
func New(settings *conf.Settings) (*Server, error) {
	resolver, err := urlres.New(settings.Server.Root, settings.Server.Aliases)
	if err != nil {
		return nil, err
	}

	deps, err := depcache.New(settings.Server.Root)
	if err != nil {
		return nil, err
	}

	guard, err := access.New(access.Config{
		Strict:     settings.Server.Strict,
		AllowRoots: settings.Server.Allow,
		Deny:       settings.Server.Deny,
		SafePath:   deps.Contains,
	})
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Echo:         echo.New(),
		Settings:     settings,
		DepCache:     deps,
		resolver:     resolver,
		guard:        guard,
		metrics:      metrics,
		staticServer: http.FileServer(noListingFileSystem{http.Dir(settings.Server.Root)}),
		fsServer:     http.FileServer(noListingFileSystem{http.Dir("/")}),
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.initLogger()
	s.configureMiddleware()
	s.initRoutes()

	return s, nil
}

// initLogger sets up the structured web logger, file-backed when enabled.
func (s *Server) initLogger() {
	level := slog.LevelInfo
	if s.Settings.Debug {
		level = slog.LevelDebug
	}

	logConf := s.Settings.Server.Log
	if logConf.Enabled && logConf.Path != "" {
		logger, closeFunc, err := logging.NewFileLogger(logConf.Path, "web", level, logging.Rotation{
			MaxSizeMB:  logConf.MaxSize,
			MaxBackups: logConf.MaxBackups,
			MaxAgeDays: logConf.MaxAge,
		})
		if err == nil {
			s.webLogger = logger
			s.webLoggerClose = closeFunc
			return
		}
		logging.Error("Failed to initialize web log file, falling back to standard logger", "error", err)
	}

	if s.webLogger = logging.ForService("web"); s.webLogger == nil {
		s.webLogger = slog.Default().With("service", "web")
	}
}

// configureMiddleware sets up the middleware chain. Registration order is the
// execution order: recovery and logging wrap everything, headers apply to all
// served responses, the escape route runs before the static route so /@fs/
// requests never reach it. These run as Pre middleware because the access
// boundary needs the raw request URL before any routing normalization.
func (s *Server) configureMiddleware() {
	s.Echo.Pre(echomw.Recover())
	s.Echo.Pre(s.AccessLogMiddleware())
	s.Echo.Pre(s.ExtraHeadersMiddleware())
	s.Echo.Pre(s.EscapeRouteMiddleware())
	s.Echo.Pre(s.StaticRouteMiddleware())
}

// initRoutes registers the server-owned endpoints.
func (s *Server) initRoutes() {
	s.Echo.GET(MetricsPath, echo.WrapHandler(s.metrics.Handler()))
}

// Start begins listening on the configured host and port. Blocks until the
// server stops.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.Settings.Server.Host, s.Settings.Server.Port)
	s.webLogger.Info("Starting asset server",
		"address", addr,
		"root", s.Settings.Server.Root,
		"strict", s.Settings.Server.Strict)
	return s.Echo.Start(addr)
}

// Shutdown gracefully stops the server and closes the web log writer.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	if s.webLoggerClose != nil {
		if closeErr := s.webLoggerClose(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// isReservedRequest reports whether the pathname belongs to the surrounding
// server rather than the static file surface.
func isReservedRequest(pathname string) bool {
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(pathname, prefix) {
			return true
		}
	}
	return false
}
