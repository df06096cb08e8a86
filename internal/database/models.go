package database

import (
	"time"
)

// =============================================================================
// TV SHOWS
// =============================================================================

// TvShow is a show that members can track
type TvShow struct {
	ID            uint32    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"size:255;not null;index" json:"name"`
	Seasons       int       `gorm:"not null;default:0" json:"seasons"`
	Genre         string    `gorm:"size:100" json:"genre"`
	Network       string    `gorm:"size:100" json:"network"`
	Summary       string    `gorm:"type:text" json:"summary"`
	PremieredYear int       `json:"premiered_year"` // 0 when unknown
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// =============================================================================
// MEMBERS
// =============================================================================

// Member is an identified user of the API
type Member struct {
	ID        uint32    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"` // sha256 hex of the bearer token
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberRole grants a named role to a member
type MemberRole struct {
	ID        uint32    `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID  uint32    `gorm:"not null;uniqueIndex:idx_member_role" json:"member_id"`
	Role      string    `gorm:"size:100;not null;uniqueIndex:idx_member_role" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// WATCH LISTS
// =============================================================================

// WatchListEntry records that a member is following a show and where they are in it
type WatchListEntry struct {
	ID            uint32    `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID      uint32    `gorm:"not null;uniqueIndex:idx_watchlist_member_show" json:"member_id"`
	TvShowID      uint32    `gorm:"not null;uniqueIndex:idx_watchlist_member_show;index" json:"tv_show_id"`
	CurrentSeason int       `gorm:"not null;default:0" json:"current_season"`
	TvShow        TvShow    `gorm:"foreignKey:TvShowID" json:"tv_show"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AllModels lists every entity owned by the application, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&TvShow{},
		&Member{},
		&MemberRole{},
		&WatchListEntry{},
	}
}
