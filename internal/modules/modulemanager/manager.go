package modulemanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/logger"
	"gorm.io/gorm"
)

// ModuleRegistry manages module registration and initialization
type ModuleRegistry struct {
	modules         map[string]Module
	disabledModules map[string]bool
	loaded          []Module
	mu              sync.RWMutex
	initialized     bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		modules:         make(map[string]Module),
		disabledModules: make(map[string]bool),
	}
}

// Register adds a module to the registry
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module registered after initialization", "module", m.ID())
	}

	r.modules[m.ID()] = m
	logger.Debug("module registered", "module", m.ID(), "name", m.Name())
}

// DisableModule marks a module as disabled. Core modules cannot be disabled.
func (r *ModuleRegistry) DisableModule(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if module, exists := r.modules[id]; exists && module.Core() {
		return fmt.Errorf("cannot disable core module: %s", id)
	}

	r.disabledModules[id] = true
	return nil
}

// LoadAll migrates and initializes every enabled module in dependency order.
// A module depending on a disabled one fails the load.
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module system already initialized")
		return nil
	}

	enabledModules := make(map[string]Module)
	for id, module := range r.modules {
		if r.disabledModules[id] {
			logger.Warn("skipping disabled module", "module", id)
			continue
		}
		enabledModules[id] = module
	}

	depGraph, err := BuildDependencyGraph(enabledModules)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}

	initOrder := depGraph.GetInitializationOrder()
	depGraph.LogDependencyInfo()

	for i, module := range initOrder {
		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}

		if err := module.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}

		logger.Info("module loaded", "module", module.ID(), "position", fmt.Sprintf("%d/%d", i+1, len(initOrder)))
	}

	r.loaded = initOrder
	r.initialized = true
	return nil
}

// GetModule returns a module by ID
func (r *ModuleRegistry) GetModule(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, exists := r.modules[id]
	return module, exists
}

// ListModules returns the loaded modules in initialization order
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Module(nil), r.loaded...)
}

// RegisterRoutes registers routes for every loaded module that implements RouteRegistrar
func (r *ModuleRegistry) RegisterRoutes(router gin.IRouter) {
	for _, module := range r.ListModules() {
		if routeRegistrar, ok := module.(RouteRegistrar); ok {
			routeRegistrar.RegisterRoutes(router)
		}
	}
}

// HealthReport checks every loaded module.
func (r *ModuleRegistry) HealthReport(ctx context.Context) []HealthStatus {
	modules := r.ListModules()
	report := make([]HealthStatus, 0, len(modules))

	for _, module := range modules {
		status := HealthStatus{
			Module:      module.ID(),
			Status:      HealthStateUnknown,
			LastChecked: time.Now(),
		}
		if checker, ok := module.(HealthChecker); ok {
			if err := checker.HealthCheck(ctx); err != nil {
				status.Status = HealthStateUnhealthy
				status.Message = err.Error()
			} else {
				status.Status = HealthStateHealthy
			}
		}
		report = append(report, status)
	}
	return report
}
