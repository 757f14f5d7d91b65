package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/film-catalog/internal/model"
)

// MpaRepo reads the mpa_ratings reference table.
type MpaRepo struct {
	db *sql.DB
}

// NewMpaRepo constructs an MpaRepo.
func NewMpaRepo(db *sql.DB) *MpaRepo { return &MpaRepo{db: db} }

// List returns all ratings in ascending id order.
func (r *MpaRepo) List(ctx context.Context) ([]model.MpaRating, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM mpa_ratings ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.MpaRating{}
	for rows.Next() {
		var m model.MpaRating
		if err := rows.Scan(&m.ID, &m.Name, &m.Description); err != nil {
			return nil, classify(err)
		}
		out = append(out, m)
	}
	return out, classify(rows.Err())
}

// GetByID returns one rating or ErrNotFound.
func (r *MpaRepo) GetByID(ctx context.Context, id uint64) (model.MpaRating, error) {
	var m model.MpaRating
	err := r.db.QueryRowContext(ctx, `SELECT id, name, description FROM mpa_ratings WHERE id = ? LIMIT 1`, id).
		Scan(&m.ID, &m.Name, &m.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MpaRating{}, fmt.Errorf("mpa rating %d: %w", id, ErrNotFound)
	}
	return m, classify(err)
}
