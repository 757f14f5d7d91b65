package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/film-catalog/internal/model"
)

// DirectorRepo manages the directors table.
type DirectorRepo struct {
	db *sql.DB
}

// NewDirectorRepo constructs a DirectorRepo.
func NewDirectorRepo(db *sql.DB) *DirectorRepo { return &DirectorRepo{db: db} }

// Create inserts a director and returns its id.
func (r *DirectorRepo) Create(ctx context.Context, name string) (uint64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO directors (name) VALUES (?)`, name)
	if err != nil {
		return 0, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classify(err)
	}
	return uint64(id), nil
}

// Update renames a director. ErrNotFound when the id does not exist.
func (r *DirectorRepo) Update(ctx context.Context, d model.Director) error {
	ok, err := r.Exists(ctx, d.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("director %d: %w", d.ID, ErrNotFound)
	}
	_, err = r.db.ExecContext(ctx, `UPDATE directors SET name = ? WHERE id = ?`, d.Name, d.ID)
	return classify(err)
}

// Delete removes a director and its film associations in one transaction.
func (r *DirectorRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = existsTx(ctx, tx, `SELECT 1 FROM directors WHERE id = ? LIMIT 1`, id); err != nil {
		return fmt.Errorf("director %d: %w", id, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM film_directors WHERE director_id = ?`, id); err != nil {
		return classify(err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM directors WHERE id = ?`, id); err != nil {
		return classify(err)
	}
	return classify(tx.Commit())
}

// GetByID returns one director or ErrNotFound.
func (r *DirectorRepo) GetByID(ctx context.Context, id uint64) (model.Director, error) {
	var d model.Director
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM directors WHERE id = ? LIMIT 1`, id).Scan(&d.ID, &d.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Director{}, fmt.Errorf("director %d: %w", id, ErrNotFound)
	}
	return d, classify(err)
}

// List returns all directors in ascending id order.
func (r *DirectorRepo) List(ctx context.Context) ([]model.Director, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM directors ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.Director{}
	for rows.Next() {
		var d model.Director
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, classify(err)
		}
		out = append(out, d)
	}
	return out, classify(rows.Err())
}

// Exists reports whether the director id exists.
func (r *DirectorRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, `SELECT 1 FROM directors WHERE id = ? LIMIT 1`, id)
}
