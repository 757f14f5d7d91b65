package repository

import (
	"context"

	"github.com/iliyamo/film-catalog/internal/model"
)

// FilmSet names the films a BatchLoader call covers: either every film in
// the store or an explicit id list.
type FilmSet struct {
	all bool
	ids []uint64
}

// AllFilms covers every film in the store.
func AllFilms() FilmSet { return FilmSet{all: true} }

// OnlyFilms covers exactly the given ids. An empty list covers no films.
func OnlyFilms(ids ...uint64) FilmSet { return FilmSet{ids: dedupe(ids)} }

// Empty reports whether the set is an explicit empty id list.
func (s FilmSet) Empty() bool { return !s.all && len(s.ids) == 0 }

// filter returns the WHERE clause restricting column to the set.
func (s FilmSet) filter(column string) (string, []any) {
	if s.all {
		return "", nil
	}
	in, args := inClause(s.ids)
	return " WHERE " + column + " IN " + in, args
}

// BatchLoader fetches the collections of many films at once: one grouped
// query per relation no matter how many films are covered.
type BatchLoader struct {
	q queryer
}

// NewBatchLoader constructs a BatchLoader over q, a *sql.DB or a *sql.Tx.
func NewBatchLoader(q queryer) *BatchLoader {
	return &BatchLoader{q: q}
}

// GenresByFilm returns film id -> genres ordered by genre id. Films without
// genres are absent from the map.
func (l *BatchLoader) GenresByFilm(ctx context.Context, set FilmSet) (map[uint64][]model.Genre, error) {
	out := map[uint64][]model.Genre{}
	if set.Empty() {
		return out, nil
	}
	where, args := set.filter("fg.film_id")
	q := `SELECT fg.film_id, g.id, g.name FROM film_genres fg JOIN genres g ON g.id = fg.genre_id` +
		where + ` ORDER BY fg.film_id, g.id`
	rows, err := l.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var filmID uint64
		var g model.Genre
		if err := rows.Scan(&filmID, &g.ID, &g.Name); err != nil {
			return nil, classify(err)
		}
		out[filmID] = append(out[filmID], g)
	}
	return out, classify(rows.Err())
}

// DirectorsByFilm returns film id -> directors ordered by director id.
func (l *BatchLoader) DirectorsByFilm(ctx context.Context, set FilmSet) (map[uint64][]model.Director, error) {
	out := map[uint64][]model.Director{}
	if set.Empty() {
		return out, nil
	}
	where, args := set.filter("fd.film_id")
	q := `SELECT fd.film_id, d.id, d.name FROM film_directors fd JOIN directors d ON d.id = fd.director_id` +
		where + ` ORDER BY fd.film_id, d.id`
	rows, err := l.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var filmID uint64
		var d model.Director
		if err := rows.Scan(&filmID, &d.ID, &d.Name); err != nil {
			return nil, classify(err)
		}
		out[filmID] = append(out[filmID], d)
	}
	return out, classify(rows.Err())
}

// LikesByFilm returns film id -> ids of users who liked it, ascending.
func (l *BatchLoader) LikesByFilm(ctx context.Context, set FilmSet) (map[uint64][]uint64, error) {
	out := map[uint64][]uint64{}
	if set.Empty() {
		return out, nil
	}
	where, args := set.filter("film_id")
	rows, err := l.q.QueryContext(ctx, `SELECT film_id, user_id FROM film_likes`+where+` ORDER BY film_id, user_id`, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var filmID, userID uint64
		if err := rows.Scan(&filmID, &userID); err != nil {
			return nil, classify(err)
		}
		out[filmID] = append(out[filmID], userID)
	}
	return out, classify(rows.Err())
}

// Load fetches all three relations for set. The queries run one after
// another so that, inside a transaction, they share its connection and
// snapshot. If any relation fails the whole load fails.
func (l *BatchLoader) Load(ctx context.Context, set FilmSet) (model.Relations, error) {
	rel := model.NewRelations()
	if set.Empty() {
		return rel, nil
	}
	var err error
	if rel.Genres, err = l.GenresByFilm(ctx, set); err != nil {
		return model.Relations{}, err
	}
	if rel.Directors, err = l.DirectorsByFilm(ctx, set); err != nil {
		return model.Relations{}, err
	}
	if rel.Likes, err = l.LikesByFilm(ctx, set); err != nil {
		return model.Relations{}, err
	}
	return rel, nil
}
