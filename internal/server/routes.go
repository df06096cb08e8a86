package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/api"
	"github.com/mantonx/seasontracker/internal/apiroutes"
	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/metrics"
	"github.com/mantonx/seasontracker/internal/middleware"
	"github.com/mantonx/seasontracker/internal/server/handlers"
)

// setupRouter configures the middleware chain and every route
func (s *Server) setupRouter() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(s.cfg.Server.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(api.ErrorMiddleware())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.Metrics())

	if s.cfg.Server.EnableCORS {
		r.Use(middleware.CORS(s.cfg.Security.AllowedOrigins))
	}

	if s.cfg.Server.RequireHTTPS {
		requireHTTPS, err := middleware.RequireHTTPS(s.cfg.Server.TrustedProxies)
		if err != nil {
			return nil, err
		}
		r.Use(requireHTTPS)
	}

	if s.cfg.Security.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(s.cfg.Security.RateLimitRPM, s.cfg.Security.RateLimitBurst)
		r.Use(limiter.Middleware())
	}

	r.Use(auth.Authenticate(s.members))

	s.setupCoreRoutes(r)
	s.modules.RegisterRoutes(r)

	r.NoRoute(api.NoRoute)
	return r, nil
}

// setupCoreRoutes registers discovery, health and metrics endpoints
func (s *Server) setupCoreRoutes(r *gin.Engine) {
	health := handlers.NewHealthHandler(s.db, s.modules, Version)

	s.handle(r, http.MethodGet, "/api", "Lists all available API endpoints.", handlers.APIRootHandler(s.routes))
	s.handle(r, http.MethodGet, "/api/health", "Service and module health.", health.HandleHealthCheck)
	s.handle(r, http.MethodGet, "/api/health/db", "Database ping and connection pool statistics.", health.HandleDatabaseHealth)
	s.handle(r, http.MethodGet, "/api/health/system", "Host memory, load and process resource usage.", health.HandleSystemHealth)

	if s.cfg.Metrics.Enabled {
		s.handle(r, http.MethodGet, s.cfg.Metrics.Path, "Prometheus metrics.", metrics.Handler())
	}
}

func (s *Server) handle(r gin.IRouter, method, path, description string, h gin.HandlerFunc) {
	r.Handle(method, path, h)
	s.routes.Register(apiroutes.APIRoute{Path: path, Method: method, Description: description, Module: "core"})
}
