package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	appapi "github.com/mantonx/seasontracker/internal/api"
	"github.com/mantonx/seasontracker/internal/base"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/models"
	"github.com/mantonx/seasontracker/internal/validation"
)

// BasePath is where the TV show routes are mounted.
const BasePath = "/api/tvshows"

// Service is the TV show service the handler delegates to.
type Service interface {
	List(ctx context.Context, query string) ([]models.TvShowDto, error)
	Get(ctx context.Context, id uint32) (models.TvShowDto, error)
	Create(ctx context.Context, dto *models.TvShowDto) (models.TvShowDto, error)
	Update(ctx context.Context, id uint32, dto *models.TvShowDto) error
	Delete(ctx context.Context, id uint32) error
}

// Handler provides HTTP handlers for TV show operations
type Handler struct {
	service Service
}

// NewHandler creates a new API handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the TV show routes on r, which is mounted at BasePath.
func (h *Handler) RegisterRoutes(r base.Router) {
	r.Handle(http.MethodGet, "", "List TV shows, optionally filtered by ?query=", h.List)
	r.Handle(http.MethodPost, "", "Create a TV show (CanManageTvShows)", h.Create)
	r.Handle(http.MethodGet, "/:id", "Get a TV show", h.Get)
	r.Handle(http.MethodPut, "/:id", "Update a TV show (CanManageTvShows)", h.Update)
	r.Handle(http.MethodDelete, "/:id", "Delete a TV show (CanManageTvShows)", h.Delete)
}

// List handles GET /api/tvshows
func (h *Handler) List(c *gin.Context) {
	shows, err := h.service.List(c.Request.Context(), c.Query("query"))
	if err != nil {
		appapi.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, shows)
}

// Get handles GET /api/tvshows/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := showID(c)
	if !ok {
		return
	}

	show, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		appapi.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, show)
}

// Create handles POST /api/tvshows
func (h *Handler) Create(c *gin.Context) {
	dto, decodeErr := bindDto(c)
	created, err := h.service.Create(c.Request.Context(), dto)
	if err != nil {
		appapi.RespondWithError(c, validation.WithDecodeCause(err, decodeErr))
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%d", BasePath, created.ID))
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/tvshows/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := showID(c)
	if !ok {
		return
	}

	dto, decodeErr := bindDto(c)
	if err := h.service.Update(c.Request.Context(), id, dto); err != nil {
		appapi.RespondWithError(c, validation.WithDecodeCause(err, decodeErr))
		return
	}
	c.Status(http.StatusOK)
}

// Delete handles DELETE /api/tvshows/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := showID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		appapi.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// bindDto decodes the body without running validation, which the service
// does after authorization. An unreadable body yields a nil DTO and the
// decode error.
func bindDto(c *gin.Context) (*models.TvShowDto, error) {
	var dto models.TvShowDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		logger.Debug("unreadable tv show body", "error", err, "path", c.Request.URL.Path)
		return nil, err
	}
	return &dto, nil
}

// showID parses the :id parameter. Anything that is not a uint32 cannot name
// a show and is answered with 404.
func showID(c *gin.Context) (uint32, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		appapi.RespondWithNotFound(c, "tv show", raw)
		return 0, false
	}
	return uint32(id), true
}
