// Package models holds the wire representation of a TV show and its
// conversions to and from the database entity.
package models

import "github.com/mantonx/seasontracker/internal/database"

// TvShowDto is the JSON shape of a TV show. ID is ignored on input and set
// by the server on output.
type TvShowDto struct {
	ID            uint32 `json:"id"`
	Name          string `json:"name" validate:"required,notblank,max=255"`
	Seasons       int    `json:"seasons" validate:"gte=0,lte=500"`
	Genre         string `json:"genre" validate:"max=100"`
	Network       string `json:"network" validate:"max=100"`
	Summary       string `json:"summary" validate:"max=4000"`
	PremieredYear int    `json:"premieredYear" validate:"omitempty,gte=1900,lte=2100"`
}

// ToDto projects a stored show.
func ToDto(show *database.TvShow) TvShowDto {
	return TvShowDto{
		ID:            show.ID,
		Name:          show.Name,
		Seasons:       show.Seasons,
		Genre:         show.Genre,
		Network:       show.Network,
		Summary:       show.Summary,
		PremieredYear: show.PremieredYear,
	}
}

// ToDtos projects a slice, never returning nil.
func ToDtos(shows []database.TvShow) []TvShowDto {
	out := make([]TvShowDto, 0, len(shows))
	for i := range shows {
		out = append(out, ToDto(&shows[i]))
	}
	return out
}

// FromDto builds a new entity. The identity is left for the database to assign.
func FromDto(dto *TvShowDto) *database.TvShow {
	show := &database.TvShow{}
	ApplyDto(show, dto)
	return show
}

// ApplyDto overwrites every mutable field of show. The identity is never copied.
func ApplyDto(show *database.TvShow, dto *TvShowDto) {
	show.Name = dto.Name
	show.Seasons = dto.Seasons
	show.Genre = dto.Genre
	show.Network = dto.Network
	show.Summary = dto.Summary
	show.PremieredYear = dto.PremieredYear
}
