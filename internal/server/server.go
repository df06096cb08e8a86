// Package server assembles the gin engine, the module system and the HTTP
// listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/apiroutes"
	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/config"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/modules/membermodule"
	"github.com/mantonx/seasontracker/internal/modules/modulemanager"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule"
	"github.com/mantonx/seasontracker/internal/modules/watchlistmodule"
	"github.com/mantonx/seasontracker/internal/validation"
	"gorm.io/gorm"
)

// Version is reported by the health endpoint. Overridden at build time.
var Version = "dev"

// Server owns the router and the loaded modules.
type Server struct {
	cfg     *config.Config
	db      *gorm.DB
	engine  *gin.Engine
	modules *modulemanager.ModuleRegistry
	routes  *apiroutes.Registry
	members *membermodule.MemberRepository
}

// New loads every enabled module against db and builds the router.
func New(cfg *config.Config, db *gorm.DB) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		db:      db,
		modules: modulemanager.NewRegistry(),
		routes:  apiroutes.New(),
		members: membermodule.NewMemberRepository(db),
	}

	if err := s.initializeModules(); err != nil {
		return nil, err
	}

	engine, err := s.setupRouter()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// initializeModules registers the modules, applies the disabled list and loads them
func (s *Server) initializeModules() error {
	validator := validation.New()
	authorizer := auth.NewRoleAuthorizer(s.members)

	s.modules.Register(membermodule.NewModule(s.members, s.routes))
	s.modules.Register(tvshowmodule.NewModule(authorizer, validator, s.routes))
	s.modules.Register(watchlistmodule.NewModule(validator, s.routes))

	for _, id := range s.cfg.Modules.Disabled {
		if err := s.modules.DisableModule(id); err != nil {
			return err
		}
		logger.Info("module disabled by configuration", "module", id)
	}

	if err := s.modules.LoadAll(s.db); err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}

	logModuleStatus(s.modules.ListModules())
	return nil
}

// logModuleStatus logs the loaded modules
func logModuleStatus(modules []modulemanager.Module) {
	logger.Info("module system initialized", "count", len(modules))
	for _, m := range modules {
		logger.Info("module", "id", m.ID(), "name", m.Name(), "core", m.Core())
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Routes returns the route discovery registry.
func (s *Server) Routes() *apiroutes.Registry {
	return s.routes
}

// Members returns the member repository used for authentication.
func (s *Server) Members() *membermodule.MemberRepository {
	return s.members
}

// Addr is the listen address from the configuration.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:           s.Addr(),
		Handler:        s.engine,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server", "timeout", s.cfg.Server.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}
