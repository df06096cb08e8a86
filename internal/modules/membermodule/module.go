// Package membermodule stores members and their roles, and serves the
// identity endpoint.
package membermodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/apiroutes"
	"github.com/mantonx/seasontracker/internal/base"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/logger"
	"gorm.io/gorm"
)

const (
	ModuleID      = "system.members"
	ModuleName    = "Members"
	ModuleVersion = "1.0.0"
)

// Module owns the member tables. The repository is built by the caller
// because authentication needs it before modules load.
type Module struct {
	*base.BaseModule

	repo      *MemberRepository
	handler   *Handler
	registrar *base.BaseRouteRegistrar
}

// NewModule creates the module around repo. routes may be nil.
func NewModule(repo *MemberRepository, routes *apiroutes.Registry) *Module {
	m := &Module{
		BaseModule: base.NewBaseModule(ModuleID, ModuleName, ModuleVersion, true),
		repo:       repo,
	}
	m.registrar = base.NewBaseRouteRegistrar(BasePath, m.BaseModule, routes)
	return m
}

// Migrate performs database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	logger.Info("migrating member schema")
	if err := database.Migrate(db, &database.Member{}, &database.MemberRole{}); err != nil {
		return fmt.Errorf("failed to migrate member models: %w", err)
	}
	m.SetDB(db)
	return nil
}

// Init initializes the member module
func (m *Module) Init() error {
	if m.repo == nil {
		return fmt.Errorf("member module has no repository")
	}
	m.handler = NewHandler(m.repo)
	m.SetInitialized(true)
	return nil
}

// RegisterRoutes mounts /api/members.
func (m *Module) RegisterRoutes(router gin.IRouter) {
	m.registrar.RegisterRoutes(router, m.handler.RegisterRoutes)
}

// Repository returns the member repository.
func (m *Module) Repository() *MemberRepository {
	return m.repo
}
