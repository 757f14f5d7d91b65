package model

import (
	"errors"
	"fmt"
)

// ErrMissingRating is returned by AssembleFilm when a base row has no MPA
// rating association. The schema requires one, so this is a data error.
var ErrMissingRating = errors.New("film has no mpa rating")

// Relations holds the per-film collections produced by the batch loader.
// A film id absent from a map simply has an empty collection.
type Relations struct {
	Genres    map[uint64][]Genre
	Directors map[uint64][]Director
	Likes     map[uint64][]uint64
}

// NewRelations returns Relations with empty, non-nil maps.
func NewRelations() Relations {
	return Relations{
		Genres:    map[uint64][]Genre{},
		Directors: map[uint64][]Director{},
		Likes:     map[uint64][]uint64{},
	}
}

// GenresOf returns a copy of the genres for filmID, never nil.
func (r Relations) GenresOf(filmID uint64) []Genre {
	return append(make([]Genre, 0, len(r.Genres[filmID])), r.Genres[filmID]...)
}

// DirectorsOf returns a copy of the directors for filmID, never nil.
func (r Relations) DirectorsOf(filmID uint64) []Director {
	return append(make([]Director, 0, len(r.Directors[filmID])), r.Directors[filmID]...)
}

// LikesOf returns a copy of the liking user ids for filmID, never nil.
func (r Relations) LikesOf(filmID uint64) []uint64 {
	return append(make([]uint64, 0, len(r.Likes[filmID])), r.Likes[filmID]...)
}

// AssembleFilm combines one base row with the batch-loaded relations into a
// Film aggregate. It performs no I/O. The returned collections are fresh
// copies, so the aggregate shares no memory with rel.
func AssembleFilm(row FilmRow, rel Relations) (Film, error) {
	if row.MpaID == 0 {
		return Film{}, fmt.Errorf("film %d: %w", row.ID, ErrMissingRating)
	}
	return Film{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		ReleaseDate: row.ReleaseDate,
		Duration:    row.Duration,
		Mpa: MpaRating{
			ID:          row.MpaID,
			Name:        row.MpaName,
			Description: row.MpaDescription,
		},
		Genres:    rel.GenresOf(row.ID),
		Directors: rel.DirectorsOf(row.ID),
		Likes:     rel.LikesOf(row.ID),
	}, nil
}

// AssembleFilms assembles rows in order. It stops at the first row with a
// data error.
func AssembleFilms(rows []FilmRow, rel Relations) ([]Film, error) {
	out := make([]Film, 0, len(rows))
	for _, row := range rows {
		f, err := AssembleFilm(row, rel)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
