// Package http provides the HTTP server, its routes and the metrics server.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/astroeyes/authcore/internal/config"
	"github.com/astroeyes/authcore/internal/metrics"
	sessionHTTP "github.com/astroeyes/authcore/internal/session/http"
	sessionUseCase "github.com/astroeyes/authcore/internal/session/usecase"
	userHTTP "github.com/astroeyes/authcore/internal/user/http"
)

// readinessTimeout bounds every readiness check.
const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger

	mu     sync.RWMutex
	checks map[string]ReadinessCheck
}

// NewServer creates a new HTTP server. db backs the "database" readiness
// check; a nil db is reported as not ready.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	s := &Server{
		logger: logger,
		checks: make(map[string]ReadinessCheck),
		server: newHTTPServer(host, port),
	}

	s.AddReadinessCheck("database", func(ctx context.Context) error {
		if db == nil {
			return errors.New("database not configured")
		}
		return db.PingContext(ctx)
	})

	return s
}

// AddReadinessCheck registers or replaces a named readiness check.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// SetupRouter builds the routes.
//
// Public, IP rate limited when enabled:
//
//	POST /v1/auth/register
//	POST /v1/auth/login
//	POST /v1/token/refresh
//	POST /v1/token/revoke
//
// Bearer authenticated, subject rate limited when enabled:
//
//	POST /v1/token/revoke-all
//	GET  /v1/me
func (s *Server) SetupRouter(
	cfg *config.Config,
	sessionHandler *sessionHTTP.SessionHandler,
	userHandler *userHTTP.UserHandler,
	resolver sessionUseCase.IdentityResolver,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	public := v1.Group("")
	if cfg.RateLimitAuthEnabled {
		public.Use(sessionHTTP.IPRateLimitMiddleware(cfg.RateLimitAuthRequestsPerSec, cfg.RateLimitAuthBurst, s.logger))
	}
	public.POST("/auth/register", userHandler.RegisterHandler)
	public.POST("/auth/login", sessionHandler.LoginHandler)
	public.POST("/token/refresh", sessionHandler.RefreshHandler)
	public.POST("/token/revoke", sessionHandler.RevokeHandler)

	authenticated := v1.Group("")
	authenticated.Use(sessionHTTP.AuthenticationMiddleware(resolver, s.logger))
	if cfg.RateLimitEnabled {
		authenticated.Use(sessionHTTP.SubjectRateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	authenticated.POST("/token/revoke-all", sessionHandler.RevokeAllHandler)
	authenticated.GET("/me", userHandler.MeHandler)

	s.router = router
}

// GetHandler returns the configured router.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("router not configured")
	}
	s.server.Handler = s.router
	return serve(s.server, s.logger, "http server")
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// newHTTPServer returns a listener config with timeouts sized for small JSON
// bodies. The handler is set by the caller.
func newHTTPServer(host string, port int) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve blocks until srv is shut down. A closed server is not an error.
func serve(srv *http.Server, logger *slog.Logger, name string) error {
	logger.Info("starting "+name, slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler runs every check and reports each component as "ok" or "error".
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			s.logger.Warn("readiness check failed",
				slog.String("component", name),
				slog.Any("error", err))
			components[name] = "error"
			ready = false
			continue
		}
		components[name] = "ok"
	}
	s.mu.RUnlock()

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
