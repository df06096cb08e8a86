package watchlistmodule

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/api"
	"github.com/mantonx/seasontracker/internal/base"
	"github.com/mantonx/seasontracker/internal/validation"
)

// BasePath is where the watch list routes are mounted.
const BasePath = "/api/watchlist"

// Handler serves the caller's watch list.
type Handler struct {
	service *Service
}

// NewHandler creates a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the watch list routes.
func (h *Handler) RegisterRoutes(r base.Router) {
	r.Handle(http.MethodGet, "", "List the caller's watch list", h.List)
	r.Handle(http.MethodPost, "", "Track a TV show", h.Create)
	r.Handle(http.MethodPut, "/:id", "Set the current season of an entry", h.Update)
	r.Handle(http.MethodDelete, "/:id", "Stop tracking a TV show", h.Delete)
}

// List handles GET /api/watchlist
func (h *Handler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context())
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Create handles POST /api/watchlist
func (h *Handler) Create(c *gin.Context) {
	var req *CreateEntryRequest
	var body CreateEntryRequest
	decodeErr := c.ShouldBindJSON(&body)
	if decodeErr == nil {
		req = &body
	}

	entry, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		api.RespondWithError(c, validation.WithDecodeCause(err, decodeErr))
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%d", BasePath, entry.ID))
	c.JSON(http.StatusCreated, entry)
}

// Update handles PUT /api/watchlist/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	var req *UpdateEntryRequest
	var body UpdateEntryRequest
	decodeErr := c.ShouldBindJSON(&body)
	if decodeErr == nil {
		req = &body
	}

	if _, err := h.service.SetSeason(c.Request.Context(), id, req); err != nil {
		api.RespondWithError(c, validation.WithDecodeCause(err, decodeErr))
		return
	}
	c.Status(http.StatusOK)
}

// Delete handles DELETE /api/watchlist/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := entryID(c)
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func entryID(c *gin.Context) (uint32, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		api.RespondWithNotFound(c, "watch list entry", raw)
		return 0, false
	}
	return uint32(id), true
}
