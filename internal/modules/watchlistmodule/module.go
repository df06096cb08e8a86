// Package watchlistmodule lets members track the TV shows they watch and the
// season they are on.
package watchlistmodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/apiroutes"
	"github.com/mantonx/seasontracker/internal/base"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/modules/membermodule"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule"
	"github.com/mantonx/seasontracker/internal/validation"
	"gorm.io/gorm"
)

const (
	ModuleID      = "system.watchlist"
	ModuleName    = "Watch Lists"
	ModuleVersion = "1.0.0"
)

// Module implements per-member watch lists as a module
type Module struct {
	*base.BaseModule

	validator validation.Validator
	registrar *base.BaseRouteRegistrar

	repo    *Repository
	handler *Handler
}

// NewModule creates the module. routes may be nil.
func NewModule(validator validation.Validator, routes *apiroutes.Registry) *Module {
	m := &Module{
		BaseModule: base.NewBaseModule(ModuleID, ModuleName, ModuleVersion, false),
		validator:  validator,
	}
	m.registrar = base.NewBaseRouteRegistrar(BasePath, m.BaseModule, routes)
	return m
}

// Dependencies returns module dependencies
func (m *Module) Dependencies() []string {
	return []string{tvshowmodule.ModuleID, membermodule.ModuleID}
}

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	logger.Info("migrating watch list schema")
	if err := database.Migrate(db, &database.WatchListEntry{}); err != nil {
		return fmt.Errorf("failed to migrate watch list models: %w", err)
	}
	m.SetDB(db)
	return nil
}

// Init initializes the watch list module
func (m *Module) Init() error {
	db := m.GetDB()
	if db == nil {
		return base.NewModuleError(base.ErrDatabaseConnection.Code, "watch list module has no database", nil)
	}

	m.repo = NewRepository(db)
	m.handler = NewHandler(NewService(m.repo, m.validator))
	m.SetInitialized(true)
	return nil
}

// RegisterRoutes mounts /api/watchlist.
func (m *Module) RegisterRoutes(router gin.IRouter) {
	m.registrar.RegisterRoutes(router, m.handler.RegisterRoutes)
}
