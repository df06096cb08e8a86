package watchlistmodule

import (
	"context"
	"errors"

	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/logger"
	"github.com/mantonx/seasontracker/internal/metrics"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/models"
	"github.com/mantonx/seasontracker/internal/types"
	"github.com/mantonx/seasontracker/internal/validation"
)

// EntryDto is the JSON shape of a watch list entry.
type EntryDto struct {
	ID            uint32           `json:"id"`
	TvShowID      uint32           `json:"tvShowId"`
	CurrentSeason int              `json:"currentSeason"`
	TvShow        models.TvShowDto `json:"tvShow"`
}

// CreateEntryRequest starts tracking a show.
type CreateEntryRequest struct {
	TvShowID      uint32 `json:"tvShowId" validate:"required,gt=0"`
	CurrentSeason int    `json:"currentSeason" validate:"gte=0,lte=500"`
}

// UpdateEntryRequest moves an entry to another season.
type UpdateEntryRequest struct {
	CurrentSeason int `json:"currentSeason" validate:"gte=0,lte=500"`
}

func toEntryDto(e *database.WatchListEntry) EntryDto {
	return EntryDto{
		ID:            e.ID,
		TvShowID:      e.TvShowID,
		CurrentSeason: e.CurrentSeason,
		TvShow:        models.ToDto(&e.TvShow),
	}
}

// Service implements the watch list operations for the calling member.
type Service struct {
	repo      *Repository
	validator validation.Validator
}

// NewService creates a Service
func NewService(repo *Repository, validator validation.Validator) *Service {
	return &Service{repo: repo, validator: validator}
}

// List returns the caller's entries. The result is never nil.
func (s *Service) List(ctx context.Context) ([]EntryDto, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.List(ctx, caller.MemberID)
	if err != nil {
		return nil, types.NewInternalError("failed to list watch list", err)
	}

	out := make([]EntryDto, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryDto(&entries[i]))
	}
	return out, nil
}

// Add starts tracking a show for the caller.
func (s *Service) Add(ctx context.Context, req *CreateEntryRequest) (EntryDto, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		record("create", "denied")
		return EntryDto{}, err
	}
	if err := s.validator.Validate(req); err != nil {
		record("create", "invalid")
		return EntryDto{}, err
	}

	entry := &database.WatchListEntry{
		MemberID:      caller.MemberID,
		TvShowID:      req.TvShowID,
		CurrentSeason: req.CurrentSeason,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		appErr := mapError(err, req.TvShowID)
		record("create", outcomeOf(appErr))
		return EntryDto{}, appErr
	}

	record("create", "success")
	logger.Info("watch list entry added", "member_id", caller.MemberID, "tv_show_id", entry.TvShowID)
	return toEntryDto(entry), nil
}

// SetSeason updates the season of one of the caller's entries.
func (s *Service) SetSeason(ctx context.Context, id uint32, req *UpdateEntryRequest) (EntryDto, error) {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		record("update", "denied")
		return EntryDto{}, err
	}
	if err := s.validator.Validate(req); err != nil {
		record("update", "invalid")
		return EntryDto{}, err
	}

	entry, err := s.repo.UpdateSeason(ctx, caller.MemberID, id, req.CurrentSeason)
	if err != nil {
		appErr := mapError(err, id)
		record("update", outcomeOf(appErr))
		return EntryDto{}, appErr
	}

	record("update", "success")
	return toEntryDto(entry), nil
}

// Remove deletes one of the caller's entries.
func (s *Service) Remove(ctx context.Context, id uint32) error {
	caller, err := auth.RequireCaller(ctx)
	if err != nil {
		record("delete", "denied")
		return err
	}

	if err := s.repo.Delete(ctx, caller.MemberID, id); err != nil {
		appErr := mapError(err, id)
		record("delete", outcomeOf(appErr))
		return appErr
	}

	record("delete", "success")
	logger.Info("watch list entry removed", "member_id", caller.MemberID, "id", id)
	return nil
}

func mapError(err error, id uint32) *types.AppError {
	switch {
	case errors.Is(err, ErrEntryNotFound):
		return types.NewNotFoundError("watch list entry", id)
	case errors.Is(err, ErrShowNotFound):
		return types.NewNotFoundError("tv show", id)
	case errors.Is(err, ErrAlreadyTracked):
		return types.NewConflictError("tv show is already on the watch list").WithContext("tv_show_id", id)
	default:
		return types.NewInternalError("watch list storage failed", err)
	}
}

func outcomeOf(err *types.AppError) string {
	switch err.Code {
	case types.ErrorCodeNotFound:
		return "not_found"
	case types.ErrorCodeConflict:
		return "conflict"
	default:
		return "error"
	}
}

func record(op, outcome string) {
	metrics.WatchListMutationsTotal.WithLabelValues(op, outcome).Inc()
}
