// Package service implements the TV show operations: role gating, DTO
// validation and mapping of persistence faults to AppErrors.
package service

import (
	"context"
	"errors"

	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/metrics"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/models"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/repository"
	"github.com/mantonx/seasontracker/internal/types"
	"github.com/mantonx/seasontracker/internal/validation"
)

// Store is the persistence the service needs. *repository.TvShowRepository
// satisfies it.
type Store interface {
	Search(ctx context.Context, q repository.TvShowQuery) ([]database.TvShow, error)
	Get(ctx context.Context, id uint32) (*database.TvShow, error)
	Create(ctx context.Context, show *database.TvShow) error
	Update(ctx context.Context, id uint32, fn func(*database.TvShow) error) (*database.TvShow, error)
	Delete(ctx context.Context, id uint32) error
}

const resourceName = "tv show"

// TvShowService exposes the TV show operations.
type TvShowService struct {
	store      Store
	authorizer auth.Authorizer
	validator  validation.Validator
}

// NewTvShowService creates a TvShowService
func NewTvShowService(store Store, authorizer auth.Authorizer, validator validation.Validator) *TvShowService {
	return &TvShowService{
		store:      store,
		authorizer: authorizer,
		validator:  validator,
	}
}

// List returns every show whose name contains query, ignoring case. A blank
// query returns every show. The result is never nil.
func (s *TvShowService) List(ctx context.Context, query string) ([]models.TvShowDto, error) {
	shows, err := s.store.Search(ctx, repository.TvShowQuery{NameContains: query})
	if err != nil {
		return nil, types.NewInternalError("failed to list tv shows", err)
	}
	return models.ToDtos(shows), nil
}

// Get returns a single show.
func (s *TvShowService) Get(ctx context.Context, id uint32) (models.TvShowDto, error) {
	show, err := s.store.Get(ctx, id)
	if err != nil {
		return models.TvShowDto{}, mapStoreError(err, id)
	}
	return models.ToDto(show), nil
}

// Create stores a new show and returns it with its assigned id. Any id on
// dto is ignored.
func (s *TvShowService) Create(ctx context.Context, dto *models.TvShowDto) (models.TvShowDto, error) {
	if err := s.gate(ctx, "create", dto); err != nil {
		return models.TvShowDto{}, err
	}

	show := models.FromDto(dto)
	if err := s.store.Create(ctx, show); err != nil {
		record("create", "error")
		return models.TvShowDto{}, types.NewInternalError("failed to create tv show", err)
	}

	record("create", "success")
	logger.Info("tv show created", "id", show.ID, "name", show.Name)
	return models.ToDto(show), nil
}

// Update overwrites every mutable field of show id from dto. The DTO is
// validated before the show is looked up.
func (s *TvShowService) Update(ctx context.Context, id uint32, dto *models.TvShowDto) error {
	if err := s.gate(ctx, "update", dto); err != nil {
		return err
	}

	_, err := s.store.Update(ctx, id, func(show *database.TvShow) error {
		models.ApplyDto(show, dto)
		return nil
	})
	if err != nil {
		appErr := mapStoreError(err, id)
		record("update", outcomeOf(appErr))
		return appErr
	}

	record("update", "success")
	logger.Info("tv show updated", "id", id)
	return nil
}

// Delete removes show id.
func (s *TvShowService) Delete(ctx context.Context, id uint32) error {
	if err := s.authorizer.Authorize(ctx, auth.RoleCanManageTvShows); err != nil {
		record("delete", "denied")
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		appErr := mapStoreError(err, id)
		record("delete", outcomeOf(appErr))
		return appErr
	}

	record("delete", "success")
	logger.Info("tv show deleted", "id", id)
	return nil
}

// gate authorizes the caller, then validates dto.
func (s *TvShowService) gate(ctx context.Context, op string, dto *models.TvShowDto) error {
	if err := s.authorizer.Authorize(ctx, auth.RoleCanManageTvShows); err != nil {
		record(op, "denied")
		return err
	}
	if err := s.validator.Validate(dto); err != nil {
		record(op, "invalid")
		return err
	}
	return nil
}

func mapStoreError(err error, id uint32) *types.AppError {
	if errors.Is(err, repository.ErrTvShowNotFound) {
		return types.NewNotFoundError(resourceName, id)
	}
	return types.NewInternalError("tv show storage failed", err).WithContext("id", id)
}

func outcomeOf(err *types.AppError) string {
	if err.Code == types.ErrorCodeNotFound {
		return "not_found"
	}
	return "error"
}

func record(op, outcome string) {
	metrics.TvShowMutationsTotal.WithLabelValues(op, outcome).Inc()
}
