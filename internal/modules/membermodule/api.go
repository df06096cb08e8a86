package membermodule

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/api"
	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/base"
	"github.com/mantonx/seasontracker/internal/types"
)

// BasePath is where the member routes are mounted.
const BasePath = "/api/members"

// Handler serves the member endpoints.
type Handler struct {
	repo *MemberRepository
}

// NewHandler creates a Handler.
func NewHandler(repo *MemberRepository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the member routes.
func (h *Handler) RegisterRoutes(r base.Router) {
	r.Handle(http.MethodGet, "/me", "Current member and roles", h.Me)
}

// Me handles GET /api/members/me
func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	member, err := h.repo.Get(ctx, caller.MemberID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			api.RespondWithError(c, types.NewUnauthorizedError("member no longer exists"))
			return
		}
		api.RespondWithInternalError(c, "failed to load member", err)
		return
	}

	roles, err := h.repo.Roles(ctx, member.ID)
	if err != nil {
		api.RespondWithInternalError(c, "failed to load member roles", err)
		return
	}

	c.JSON(http.StatusOK, MemberSummary{Member: *member, Roles: roles})
}
