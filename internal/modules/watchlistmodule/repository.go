package watchlistmodule

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantonx/seasontracker/internal/database"
	"gorm.io/gorm"
)

var (
	// ErrEntryNotFound is returned for missing entries and entries of other members.
	ErrEntryNotFound = errors.New("watch list entry not found")
	// ErrShowNotFound is returned when the referenced show does not exist.
	ErrShowNotFound = errors.New("tv show not found")
	// ErrAlreadyTracked is returned when the member already tracks the show.
	ErrAlreadyTracked = errors.New("tv show already on watch list")
)

// Repository stores watch list entries. Every lookup is scoped to a member.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a Repository over db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the member's entries with their shows, ordered by id.
func (r *Repository) List(ctx context.Context, memberID uint32) ([]database.WatchListEntry, error) {
	var entries []database.WatchListEntry
	err := r.db.WithContext(ctx).
		Preload("TvShow").
		Where("member_id = ?", memberID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watch list for member %d: %w", memberID, err)
	}
	return entries, nil
}

// Get loads one of the member's entries.
func (r *Repository) Get(ctx context.Context, memberID, id uint32) (*database.WatchListEntry, error) {
	return r.get(r.db.WithContext(ctx), memberID, id)
}

func (r *Repository) get(tx *gorm.DB, memberID, id uint32) (*database.WatchListEntry, error) {
	var entry database.WatchListEntry
	err := tx.Preload("TvShow").
		Where("id = ? AND member_id = ?", id, memberID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to load watch list entry %d: %w", id, err)
	}
	return &entry, nil
}

// Create adds entry after checking the show exists and is not yet tracked.
func (r *Repository) Create(ctx context.Context, entry *database.WatchListEntry) error {
	entry.ID = 0
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var show database.TvShow
		if err := tx.First(&show, entry.TvShowID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShowNotFound
			}
			return fmt.Errorf("failed to load tv show %d: %w", entry.TvShowID, err)
		}

		var tracked int64
		err := tx.Model(&database.WatchListEntry{}).
			Where("member_id = ? AND tv_show_id = ?", entry.MemberID, entry.TvShowID).
			Count(&tracked).Error
		if err != nil {
			return fmt.Errorf("failed to check watch list: %w", err)
		}
		if tracked > 0 {
			return ErrAlreadyTracked
		}

		entry.TvShow = database.TvShow{}
		if err := tx.Omit("TvShow").Create(entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyTracked
			}
			return fmt.Errorf("failed to create watch list entry: %w", err)
		}
		entry.TvShow = show
		return nil
	})
}

// UpdateSeason sets the season the member is on.
func (r *Repository) UpdateSeason(ctx context.Context, memberID, id uint32, season int) (*database.WatchListEntry, error) {
	var updated *database.WatchListEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := r.get(tx, memberID, id)
		if err != nil {
			return err
		}

		err = tx.Model(&database.WatchListEntry{}).
			Where("id = ?", entry.ID).
			Update("current_season", season).Error
		if err != nil {
			return fmt.Errorf("failed to update watch list entry %d: %w", id, err)
		}
		entry.CurrentSeason = season
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes one of the member's entries.
func (r *Repository) Delete(ctx context.Context, memberID, id uint32) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND member_id = ?", id, memberID).
		Delete(&database.WatchListEntry{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete watch list entry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
