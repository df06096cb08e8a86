// Package repository persists TV shows through gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mantonx/seasontracker/internal/database"
	"gorm.io/gorm"
)

// ErrTvShowNotFound is returned when no show has the requested id.
var ErrTvShowNotFound = errors.New("tv show not found")

// TvShowQuery filters Search. The zero value matches every show.
type TvShowQuery struct {
	// NameContains keeps shows whose name contains it, ignoring case.
	// A blank value means no filter.
	NameContains string
}

// TvShowRepository is the gorm-backed store for TV shows.
type TvShowRepository struct {
	db *gorm.DB
}

// NewTvShowRepository creates a repository over db.
func NewTvShowRepository(db *gorm.DB) *TvShowRepository {
	return &TvShowRepository{db: db}
}

// Search returns the shows matching q ordered by id.
func (r *TvShowRepository) Search(ctx context.Context, q TvShowQuery) ([]database.TvShow, error) {
	tx := r.db.WithContext(ctx).Model(&database.TvShow{})

	if strings.TrimSpace(q.NameContains) != "" {
		tx = tx.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, "%"+escapeLike(q.NameContains)+"%")
	}

	var shows []database.TvShow
	if err := tx.Order("id ASC").Find(&shows).Error; err != nil {
		return nil, fmt.Errorf("failed to search tv shows: %w", err)
	}
	return shows, nil
}

// Get loads a show by id.
func (r *TvShowRepository) Get(ctx context.Context, id uint32) (*database.TvShow, error) {
	var show database.TvShow
	if err := r.db.WithContext(ctx).First(&show, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTvShowNotFound
		}
		return nil, fmt.Errorf("failed to load tv show %d: %w", id, err)
	}
	return &show, nil
}

// Create inserts show and fills in its assigned id.
func (r *TvShowRepository) Create(ctx context.Context, show *database.TvShow) error {
	show.ID = 0
	if err := r.db.WithContext(ctx).Create(show).Error; err != nil {
		return fmt.Errorf("failed to create tv show: %w", err)
	}
	return nil
}

// Update loads the show, applies fn and saves it in one transaction. The id
// is restored after fn so it cannot be changed.
func (r *TvShowRepository) Update(ctx context.Context, id uint32, fn func(*database.TvShow) error) (*database.TvShow, error) {
	var updated database.TvShow

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTvShowNotFound
			}
			return fmt.Errorf("failed to load tv show %d: %w", id, err)
		}

		if err := fn(&updated); err != nil {
			return err
		}
		updated.ID = id

		if err := tx.Save(&updated).Error; err != nil {
			return fmt.Errorf("failed to save tv show %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the show and every watch list entry pointing at it.
func (r *TvShowRepository) Delete(ctx context.Context, id uint32) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Entries go first so the foreign key holds on postgres.
		if err := tx.Where("tv_show_id = ?", id).Delete(&database.WatchListEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete watch list entries for tv show %d: %w", id, err)
		}

		res := tx.Delete(&database.TvShow{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete tv show %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTvShowNotFound
		}
		return nil
	})
}

// Count returns the number of stored shows.
func (r *TvShowRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&database.TvShow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count tv shows: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
