package base

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/apiroutes"
	"github.com/mantonx/seasontracker/internal/logger"
	"gorm.io/gorm"
)

// BaseModule provides common functionality for all modules
type BaseModule struct {
	id          string
	name        string
	version     string
	core        bool
	initialized bool
	db          *gorm.DB
	mu          sync.RWMutex
}

// NewBaseModule creates a new base module with common properties
func NewBaseModule(id, name, version string, core bool) *BaseModule {
	return &BaseModule{
		id:      id,
		name:    name,
		version: version,
		core:    core,
	}
}

// Common Module interface implementations
func (m *BaseModule) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id
}

func (m *BaseModule) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

func (m *BaseModule) Version() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

func (m *BaseModule) Core() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.core
}

func (m *BaseModule) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetInitialized marks the module as initialized
func (m *BaseModule) SetInitialized(initialized bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = initialized
}

// SetDB sets the database connection
func (m *BaseModule) SetDB(db *gorm.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db = db
}

// GetDB returns the database connection
func (m *BaseModule) GetDB() *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// HealthCheck reports whether the module is initialized and its database answers.
func (m *BaseModule) HealthCheck(ctx context.Context) error {
	if !m.IsInitialized() {
		return ErrModuleNotInitialized
	}

	if db := m.GetDB(); db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return NewModuleError(ErrDatabaseConnection.Code, ErrDatabaseConnection.Message, err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return NewModuleError(ErrDatabasePing.Code, ErrDatabasePing.Message, err)
		}
	}

	return nil
}

// Router is what module API packages register their handlers on. Each
// route is also recorded for discovery.
type Router interface {
	Handle(method, path, description string, handlers ...gin.HandlerFunc)
}

// RouteGroup is a gin.RouterGroup that records routes in an apiroutes.Registry.
type RouteGroup struct {
	group    *gin.RouterGroup
	moduleID string
	routes   *apiroutes.Registry
}

// NewRouteGroup wraps group. routes may be nil when discovery is not needed.
func NewRouteGroup(group *gin.RouterGroup, moduleID string, routes *apiroutes.Registry) *RouteGroup {
	return &RouteGroup{group: group, moduleID: moduleID, routes: routes}
}

// Handle registers the handlers on the gin group and records the route.
func (g *RouteGroup) Handle(method, path, description string, handlers ...gin.HandlerFunc) {
	g.group.Handle(method, path, handlers...)
	if g.routes == nil {
		return
	}

	full := g.group.BasePath()
	if path != "" && path != "/" {
		full += path
	}
	g.routes.Register(apiroutes.APIRoute{
		Path:        full,
		Method:      method,
		Description: description,
		Module:      g.moduleID,
	})
}

// BaseRouteRegistrar provides common route registration utilities
type BaseRouteRegistrar struct {
	basePath string
	module   *BaseModule
	routes   *apiroutes.Registry
}

// NewBaseRouteRegistrar creates a new route registrar
func NewBaseRouteRegistrar(basePath string, module *BaseModule, routes *apiroutes.Registry) *BaseRouteRegistrar {
	return &BaseRouteRegistrar{
		basePath: basePath,
		module:   module,
		routes:   routes,
	}
}

// RegisterRoutes mounts the module's routes under basePath. Uninitialized
// modules are skipped.
func (r *BaseRouteRegistrar) RegisterRoutes(router gin.IRouter, routes func(Router)) {
	if !r.module.IsInitialized() {
		logger.Warn("skipping route registration for uninitialized module", "module", r.module.Name())
		return
	}

	group := router.Group(r.basePath)
	routes(NewRouteGroup(group, r.module.ID(), r.routes))

	logger.Info("routes registered", "module", r.module.Name(), "base_path", r.basePath)
}

// Common errors
var (
	ErrModuleNotInitialized = &ModuleError{Code: "MODULE_NOT_INITIALIZED", Message: "Module is not initialized"}
	ErrDatabaseConnection   = &ModuleError{Code: "DATABASE_CONNECTION", Message: "Failed to get database connection"}
	ErrDatabasePing         = &ModuleError{Code: "DATABASE_PING", Message: "Database ping failed"}
)

// ModuleError provides structured error handling
type ModuleError struct {
	Code    string
	Message string
	Cause   error
}

func (e *ModuleError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ModuleError) Unwrap() error {
	return e.Cause
}

// Is matches module errors by code.
func (e *ModuleError) Is(target error) bool {
	t, ok := target.(*ModuleError)
	return ok && t.Code == e.Code
}

// NewModuleError creates a new module error with optional cause
func NewModuleError(code, message string, cause error) *ModuleError {
	return &ModuleError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
