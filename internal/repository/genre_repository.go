package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/film-catalog/internal/model"
)

// GenreRepo reads the genres reference table. Genres are seeded by the
// schema migration and not writable through the API.
type GenreRepo struct {
	db *sql.DB
}

// NewGenreRepo constructs a GenreRepo.
func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{db: db} }

// List returns all genres in ascending id order.
func (r *GenreRepo) List(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, classify(err)
		}
		out = append(out, g)
	}
	return out, classify(rows.Err())
}

// GetByID returns one genre or ErrNotFound.
func (r *GenreRepo) GetByID(ctx context.Context, id uint64) (model.Genre, error) {
	var g model.Genre
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM genres WHERE id = ? LIMIT 1`, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Genre{}, fmt.Errorf("genre %d: %w", id, ErrNotFound)
	}
	return g, classify(err)
}

// Exists reports whether the genre id exists.
func (r *GenreRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, `SELECT 1 FROM genres WHERE id = ? LIMIT 1`, id)
}
