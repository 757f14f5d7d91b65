// Package repository contains data access logic for the film catalog. This
// file defines the film repository: transactional writes of a film together
// with its genre and director associations, and the base-row reads that the
// ranking queries are built on. Collections (genres, directors, likes) are
// never read here; they come from the BatchLoader.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/film-catalog/internal/model"
)

// filmSelect is the base-row projection shared by every film read. The like
// count is grouped from film_likes at query time so rankings never depend on
// a cached counter.
const filmSelect = `SELECT f.id, f.name, f.description, f.release_date, f.duration,
       m.id, m.name, m.description, COALESCE(lc.cnt, 0) AS like_count
FROM films f
LEFT JOIN mpa_ratings m ON m.id = f.mpa_id
LEFT JOIN (SELECT film_id, COUNT(*) AS cnt FROM film_likes GROUP BY film_id) lc ON lc.film_id = f.id`

// Orderings used by the ranking reads.
const (
	orderByLikes = ` ORDER BY like_count DESC, f.id DESC`
	orderByYear  = ` ORDER BY f.release_date ASC, f.id ASC`
	orderByID    = ` ORDER BY f.id ASC`
)

// PopularFilter restricts a popularity read. Nil fields do not restrict.
type PopularFilter struct {
	GenreID *uint64
	Year    *int
	Limit   int
}

// DirectorOrder selects the ordering of ListRowsByDirector.
type DirectorOrder int

const (
	DirectorOrderYear DirectorOrder = iota
	DirectorOrderLikes
)

// SearchFields selects which attributes Search matches against.
type SearchFields struct {
	Title    bool
	Director bool
}

// FilmRepo manages persistence for films and their genre/director rows.
// Writes always run on db; reads run on q, which is db itself or the
// transaction of a Snapshots view.
type FilmRepo struct {
	db *sql.DB
	q  queryer
}

// NewFilmRepo constructs a FilmRepo with the given DB handle.
func NewFilmRepo(db *sql.DB) *FilmRepo {
	return &FilmRepo{db: db, q: db}
}

// DB exposes the underlying sql.DB.
func (r *FilmRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a film and its genre and director associations in one
// transaction. The rating, every genre and every director must exist;
// otherwise nothing is written and ErrIntegrityViolation is returned. The
// new film id is returned on success.
func (r *FilmRepo) Create(ctx context.Context, in model.FilmInput) (id uint64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = checkReferences(ctx, tx, in); err != nil {
		return 0, err
	}
	const q = `INSERT INTO films (name, description, release_date, duration, mpa_id) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, in.Name, in.Description, in.ReleaseDate.Format(model.DateLayout), in.Duration, in.MpaID)
	if err != nil {
		return 0, classify(err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, classify(err)
	}
	id = uint64(lastID)
	if err = insertJoinRows(ctx, tx, "film_genres", "genre_id", id, in.GenreIDs); err != nil {
		return 0, err
	}
	if err = insertJoinRows(ctx, tx, "film_directors", "director_id", id, in.DirectorIDs); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// Update overwrites a film's attributes and replaces its genre and director
// associations in one transaction. It returns ErrNotFound when the film does
// not exist and ErrIntegrityViolation when a reference is missing; in both
// cases the previous state is left untouched.
func (r *FilmRepo) Update(ctx context.Context, id uint64, in model.FilmInput) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = existsTx(ctx, tx, `SELECT 1 FROM films WHERE id = ? LIMIT 1`, id); err != nil {
		return fmt.Errorf("film %d: %w", id, err)
	}
	if err = checkReferences(ctx, tx, in); err != nil {
		return err
	}
	const q = `UPDATE films SET name = ?, description = ?, release_date = ?, duration = ?, mpa_id = ? WHERE id = ?`
	if _, err = tx.ExecContext(ctx, q, in.Name, in.Description, in.ReleaseDate.Format(model.DateLayout), in.Duration, in.MpaID, id); err != nil {
		return classify(err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM film_genres WHERE film_id = ?`, id); err != nil {
		return classify(err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM film_directors WHERE film_id = ?`, id); err != nil {
		return classify(err)
	}
	if err = insertJoinRows(ctx, tx, "film_genres", "genre_id", id, in.GenreIDs); err != nil {
		return err
	}
	if err = insertJoinRows(ctx, tx, "film_directors", "director_id", id, in.DirectorIDs); err != nil {
		return err
	}
	return classify(tx.Commit())
}

// Delete removes a film together with its likes and genre/director rows.
// The deletion occurs within a transaction so no partial cleanup is ever
// visible. ErrNotFound is returned when the film does not exist.
func (r *FilmRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = existsTx(ctx, tx, `SELECT 1 FROM films WHERE id = ? LIMIT 1`, id); err != nil {
		return fmt.Errorf("film %d: %w", id, err)
	}
	for _, q := range []string{
		`DELETE FROM film_likes WHERE film_id = ?`,
		`DELETE FROM film_genres WHERE film_id = ?`,
		`DELETE FROM film_directors WHERE film_id = ?`,
		`DELETE FROM films WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return classify(err)
		}
	}
	return classify(tx.Commit())
}

// Exists reports whether a film with the given id exists. It is a primary
// key lookup.
func (r *FilmRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.q, `SELECT 1 FROM films WHERE id = ? LIMIT 1`, id)
}

// GetRow returns the base row of one film, or ErrNotFound.
func (r *FilmRepo) GetRow(ctx context.Context, id uint64) (model.FilmRow, error) {
	rows, err := r.queryRows(ctx, filmSelect+` WHERE f.id = ?`, id)
	if err != nil {
		return model.FilmRow{}, err
	}
	if len(rows) == 0 {
		return model.FilmRow{}, fmt.Errorf("film %d: %w", id, ErrNotFound)
	}
	return rows[0], nil
}

// ListRows returns the base rows of all films in ascending id order.
func (r *FilmRepo) ListRows(ctx context.Context) ([]model.FilmRow, error) {
	return r.queryRows(ctx, filmSelect+orderByID)
}

// ListRowsByIDs returns base rows for the given ids in ascending id order.
// Unknown ids are skipped.
func (r *FilmRepo) ListRowsByIDs(ctx context.Context, ids []uint64) ([]model.FilmRow, error) {
	if len(ids) == 0 {
		return []model.FilmRow{}, nil
	}
	in, args := inClause(ids)
	return r.queryRows(ctx, filmSelect+` WHERE f.id IN `+in+orderByID, args...)
}

// PopularRows returns films ordered by like count (descending, ties by
// film id descending). The filters are independent: a nil GenreID or Year
// places no restriction. Limit is applied after ordering; zero or negative
// means no limit.
func (r *FilmRepo) PopularRows(ctx context.Context, f PopularFilter) ([]model.FilmRow, error) {
	where := []string{}
	args := []any{}
	if f.GenreID != nil {
		where = append(where, `EXISTS (SELECT 1 FROM film_genres fg WHERE fg.film_id = f.id AND fg.genre_id = ?)`)
		args = append(args, *f.GenreID)
	}
	if f.Year != nil {
		// A half-open date range keeps the predicate index friendly and
		// portable across dialects.
		where = append(where, `f.release_date >= ? AND f.release_date < ?`)
		args = append(args, fmt.Sprintf("%04d-01-01", *f.Year), fmt.Sprintf("%04d-01-01", *f.Year+1))
	}
	q := filmSelect
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += orderByLikes
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return r.queryRows(ctx, q, args...)
}

// CommonRows returns films liked by both users, ordered by their global
// like count (descending, ties by film id descending).
func (r *FilmRepo) CommonRows(ctx context.Context, userA, userB uint64) ([]model.FilmRow, error) {
	q := filmSelect + `
JOIN film_likes la ON la.film_id = f.id AND la.user_id = ?
JOIN film_likes lb ON lb.film_id = f.id AND lb.user_id = ?` + orderByLikes
	return r.queryRows(ctx, q, userA, userB)
}

// ListRowsByDirector returns the films associated with directorID, either
// by ascending release date or by descending like count.
func (r *FilmRepo) ListRowsByDirector(ctx context.Context, directorID uint64, order DirectorOrder) ([]model.FilmRow, error) {
	q := filmSelect + `
JOIN film_directors fd ON fd.film_id = f.id AND fd.director_id = ?`
	switch order {
	case DirectorOrderLikes:
		q += orderByLikes
	default:
		q += orderByYear
	}
	return r.queryRows(ctx, q, directorID)
}

// Search returns films whose title and/or director name contains query,
// case-insensitively, ordered by like count. The query is matched
// literally: '%' and '_' carry no wildcard meaning.
func (r *FilmRepo) Search(ctx context.Context, query string, by SearchFields) ([]model.FilmRow, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	or := []string{}
	args := []any{}
	if by.Title {
		or = append(or, `LOWER(f.name) LIKE ? ESCAPE '!'`)
		args = append(args, pattern)
	}
	if by.Director {
		or = append(or, `EXISTS (SELECT 1 FROM film_directors fd JOIN directors d ON d.id = fd.director_id
			WHERE fd.film_id = f.id AND LOWER(d.name) LIKE ? ESCAPE '!')`)
		args = append(args, pattern)
	}
	if len(or) == 0 {
		return []model.FilmRow{}, nil
	}
	q := filmSelect + ` WHERE (` + strings.Join(or, " OR ") + `)` + orderByLikes
	return r.queryRows(ctx, q, args...)
}

// likeEscaper escapes LIKE metacharacters with '!', matching the ESCAPE
// clause of every Search pattern.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func (r *FilmRepo) queryRows(ctx context.Context, q string, args ...any) ([]model.FilmRow, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.FilmRow{}
	for rows.Next() {
		var (
			fr      model.FilmRow
			mpaID   sql.NullInt64
			mpaName sql.NullString
			mpaDesc sql.NullString
		)
		if err := rows.Scan(&fr.ID, &fr.Name, &fr.Description, &fr.ReleaseDate, &fr.Duration,
			&mpaID, &mpaName, &mpaDesc, &fr.LikeCount); err != nil {
			return nil, classify(err)
		}
		if mpaID.Valid {
			fr.MpaID = uint64(mpaID.Int64)
			fr.MpaName = mpaName.String
			fr.MpaDescription = mpaDesc.String
		}
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// checkReferences verifies, inside tx, that the rating and every genre and
// director referenced by in exist.
func checkReferences(ctx context.Context, tx *sql.Tx, in model.FilmInput) error {
	if err := existsTx(ctx, tx, `SELECT 1 FROM mpa_ratings WHERE id = ? LIMIT 1`, in.MpaID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: mpa rating %d does not exist", ErrIntegrityViolation, in.MpaID)
		}
		return err
	}
	if err := countMatching(ctx, tx, "genres", in.GenreIDs); err != nil {
		return err
	}
	return countMatching(ctx, tx, "directors", in.DirectorIDs)
}

// countMatching checks that every id in ids exists in table. table is
// always one of the package's own table names, never caller input.
func countMatching(ctx context.Context, tx *sql.Tx, table string, ids []uint64) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	in, args := inClause(ids)
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id IN `+in, args...).Scan(&n); err != nil {
		return classify(err)
	}
	if n != len(ids) {
		return fmt.Errorf("%w: %d of %d %s ids do not exist", ErrIntegrityViolation, len(ids)-n, len(ids), table)
	}
	return nil
}

// insertJoinRows inserts (film_id, column) pairs in a single statement.
// Passing no ids has no effect.
func insertJoinRows(ctx context.Context, tx *sql.Tx, table, column string, filmID uint64, ids []uint64) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	query := `INSERT INTO ` + table + ` (film_id, ` + column + `) VALUES `
	args := make([]any, 0, len(ids)*2)
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, filmID, id)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return classify(err)
}
