// Package tvshowmodule wires the TV show resource API into the module system.
package tvshowmodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/apiroutes"
	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/base"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/api"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/repository"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/service"
	"github.com/mantonx/seasontracker/internal/validation"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the TV show module
	ModuleID = "system.tvshows"

	// ModuleName is the display name for the TV show module
	ModuleName = "TV Shows"

	// ModuleVersion is the version of the TV show module
	ModuleVersion = "1.0.0"
)

// Module implements the TV show resource API as a module
type Module struct {
	*base.BaseModule

	authorizer auth.Authorizer
	validator  validation.Validator
	registrar  *base.BaseRouteRegistrar

	repo    *repository.TvShowRepository
	service *service.TvShowService
	handler *api.Handler
}

// NewModule creates the module. routes may be nil.
func NewModule(authorizer auth.Authorizer, validator validation.Validator, routes *apiroutes.Registry) *Module {
	m := &Module{
		BaseModule: base.NewBaseModule(ModuleID, ModuleName, ModuleVersion, true),
		authorizer: authorizer,
		validator:  validator,
	}
	m.registrar = base.NewBaseRouteRegistrar(api.BasePath, m.BaseModule, routes)
	return m
}

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	logger.Info("migrating tv show schema")
	if err := database.Migrate(db, &database.TvShow{}); err != nil {
		return fmt.Errorf("failed to migrate tv show models: %w", err)
	}
	m.SetDB(db)
	return nil
}

// Init builds the repository, service and handler.
func (m *Module) Init() error {
	db := m.GetDB()
	if db == nil {
		return base.NewModuleError(base.ErrDatabaseConnection.Code, "tv show module has no database", nil)
	}

	m.repo = repository.NewTvShowRepository(db)
	m.service = service.NewTvShowService(m.repo, m.authorizer, m.validator)
	m.handler = api.NewHandler(m.service)

	m.SetInitialized(true)
	return nil
}

// RegisterRoutes mounts /api/tvshows.
func (m *Module) RegisterRoutes(router gin.IRouter) {
	m.registrar.RegisterRoutes(router, m.handler.RegisterRoutes)
}

// Service returns the TV show service. It is nil before Init.
func (m *Module) Service() *service.TvShowService {
	return m.service
}

// Repository returns the TV show repository. It is nil before Init.
func (m *Module) Repository() *repository.TvShowRepository {
	return m.repo
}
