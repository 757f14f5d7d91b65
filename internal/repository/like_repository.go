package repository

import (
	"context"
	"database/sql"
)

// LikeRepo manages the film_likes join table. A like is a unique
// (film, user) pair; adding it twice is a no-op.
type LikeRepo struct {
	db *sql.DB
}

// NewLikeRepo constructs a LikeRepo.
func NewLikeRepo(db *sql.DB) *LikeRepo { return &LikeRepo{db: db} }

// Add records that userID likes filmID. It reports whether a new row was
// written; an existing like is left as is.
func (r *LikeRepo) Add(ctx context.Context, filmID, userID uint64) (bool, error) {
	ok, err := exists(ctx, r.db, `SELECT 1 FROM film_likes WHERE film_id = ? AND user_id = ? LIMIT 1`, filmID, userID)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO film_likes (film_id, user_id) VALUES (?, ?)`, filmID, userID); err != nil {
		// A concurrent request inserted the same pair first.
		if isDuplicate(err) {
			return false, nil
		}
		return false, classify(err)
	}
	return true, nil
}

// Remove deletes the like. It reports whether a row was removed.
func (r *LikeRepo) Remove(ctx context.Context, filmID, userID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM film_likes WHERE film_id = ? AND user_id = ?`, filmID, userID)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// LikedFilmIDs returns the ids of the films userID liked, ascending.
func (r *LikeRepo) LikedFilmIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT film_id FROM film_likes WHERE user_id = ? ORDER BY film_id`, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err)
		}
		out = append(out, id)
	}
	return out, classify(rows.Err())
}

// LikeSets returns user id -> liked film ids for every user with at least
// one like, read in a single query.
func (r *LikeRepo) LikeSets(ctx context.Context) (map[uint64][]uint64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, film_id FROM film_likes ORDER BY user_id, film_id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := map[uint64][]uint64{}
	for rows.Next() {
		var userID, filmID uint64
		if err := rows.Scan(&userID, &filmID); err != nil {
			return nil, classify(err)
		}
		out[userID] = append(out[userID], filmID)
	}
	return out, classify(rows.Err())
}
