package model

import "time"

// DateLayout is the calendar date format used on the wire and in DATE
// parameters.
const DateLayout = "2006-01-02"

// ReleaseDateFloor is the earliest accepted release date. A film must be
// released strictly after this day.
var ReleaseDateFloor = time.Date(1950, time.December, 28, 0, 0, 0, 0, time.UTC)

// Film is the fully hydrated aggregate returned by every read path. Genres,
// Directors and Likes are derived from the join tables on every read and
// are never written back; callers must treat a Film as a read-only value.
//
// Fields:
//
//	ID          – films.id, assigned on creation.
//	Name        – films.name.
//	Description – films.description (at most 200 characters).
//	ReleaseDate – films.release_date (UTC, day precision).
//	Duration    – films.duration in minutes (positive).
//	Mpa         – the single MPA rating the film references.
//	Genres      – genres from film_genres, ascending genre id.
//	Directors   – directors from film_directors, ascending director id.
//	Likes       – ids of users in film_likes for this film, ascending.
type Film struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ReleaseDate time.Time  `json:"releaseDate"`
	Duration    int        `json:"duration"`
	Mpa         MpaRating  `json:"mpa"`
	Genres      []Genre    `json:"genres"`
	Directors   []Director `json:"directors"`
	Likes       []uint64   `json:"likes"`
}

// LikeCount returns the number of users who liked the film.
func (f Film) LikeCount() int { return len(f.Likes) }

// FilmRow is one row of base film attributes as read from the films table
// joined with mpa_ratings. MpaID is zero when the rating association is
// missing, which the assembler reports as a data error. LikeCount carries
// the grouped like count the ranking queries sorted by; it is not used to
// build the aggregate.
type FilmRow struct {
	ID             uint64
	Name           string
	Description    string
	ReleaseDate    time.Time
	Duration       int
	MpaID          uint64
	MpaName        string
	MpaDescription string
	LikeCount      int64
}

// Genre is a row of the genres reference table.
type Genre struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Director is a row of the directors table.
type Director struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// MpaRating is a row of the mpa_ratings reference table.
type MpaRating struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// FilmInput carries the writable attributes of a film for create and
// update. GenreIDs and DirectorIDs replace the film's associations as a
// whole; duplicates are ignored.
type FilmInput struct {
	Name        string
	Description string
	ReleaseDate time.Time
	Duration    int
	MpaID       uint64
	GenreIDs    []uint64
	DirectorIDs []uint64
}
