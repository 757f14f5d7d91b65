package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// Dates go over the wire as plain calendar days.

type filmJSON struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ReleaseDate string     `json:"releaseDate"`
	Duration    int        `json:"duration"`
	Mpa         MpaRating  `json:"mpa"`
	Genres      []Genre    `json:"genres"`
	Directors   []Director `json:"directors"`
	Likes       []uint64   `json:"likes"`
	LikeCount   int        `json:"likeCount"`
}

// MarshalJSON renders the release date as "2006-01-02" and adds the like
// count.
func (f Film) MarshalJSON() ([]byte, error) {
	return json.Marshal(filmJSON{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: f.ReleaseDate.Format(DateLayout),
		Duration:    f.Duration,
		Mpa:         f.Mpa,
		Genres:      nonNil(f.Genres),
		Directors:   nonNil(f.Directors),
		Likes:       nonNil(f.Likes),
		LikeCount:   f.LikeCount(),
	})
}

type userJSON struct {
	ID       uint64  `json:"id"`
	Email    string  `json:"email"`
	Login    string  `json:"login"`
	Name     string  `json:"name"`
	Birthday *string `json:"birthday,omitempty"`
}

// MarshalJSON renders the birthday as "2006-01-02".
func (u User) MarshalJSON() ([]byte, error) {
	out := userJSON{ID: u.ID, Email: u.Email, Login: u.Login, Name: u.Name}
	if u.Birthday != nil {
		b := u.Birthday.Format(DateLayout)
		out.Birthday = &b
	}
	return json.Marshal(out)
}

// ParseDate parses a "2006-01-02" day as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
