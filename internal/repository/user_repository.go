package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/film-catalog/internal/model"
)

// UserRepo manages the users table and the directional user_friends
// relation.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userSelect = `SELECT u.id, u.email, u.login, u.name, u.birthday FROM users u`

// Create inserts user and returns its ID. An empty name defaults to the
// login.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if strings.TrimSpace(u.Name) == "" {
		u.Name = u.Login
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, login, name, birthday) VALUES (?,?,?,?)",
		u.Email, u.Login, u.Name, birthdayArg(u))
	if err != nil {
		return 0, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classify(err)
	}
	return uint64(id), nil
}

// Update overwrites a user's attributes. ErrNotFound when absent.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	ok, err := r.Exists(ctx, u.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotFound)
	}
	if strings.TrimSpace(u.Name) == "" {
		u.Name = u.Login
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, login=?, name=?, birthday=? WHERE id=?",
		strings.ToLower(strings.TrimSpace(u.Email)), u.Login, u.Name, birthdayArg(u), u.ID)
	return classify(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	users, err := r.query(ctx, userSelect+" WHERE u.id=? LIMIT 1", id)
	if err != nil {
		return model.User{}, err
	}
	if len(users) == 0 {
		return model.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return users[0], nil
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	return r.query(ctx, userSelect+" ORDER BY u.id")
}

// Exists reports whether a user with the given id exists.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.DB, "SELECT 1 FROM users WHERE id=? LIMIT 1", id)
}

// Delete removes a user with its likes, friendships in both directions
// and feed events.
func (r *UserRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = existsTx(ctx, tx, "SELECT 1 FROM users WHERE id=? LIMIT 1", id); err != nil {
		return fmt.Errorf("user %d: %w", id, err)
	}
	for _, st := range []struct {
		q    string
		args []any
	}{
		{"DELETE FROM film_likes WHERE user_id=?", []any{id}},
		{"DELETE FROM user_friends WHERE user_id=? OR friend_id=?", []any{id, id}},
		{"DELETE FROM user_feed WHERE user_id=?", []any{id}},
		{"DELETE FROM users WHERE id=?", []any{id}},
	} {
		if _, err = tx.ExecContext(ctx, st.q, st.args...); err != nil {
			return classify(err)
		}
	}
	return classify(tx.Commit())
}

// AddFriend records that userID follows friendID. It reports whether a new
// row was written.
func (r *UserRepo) AddFriend(ctx context.Context, userID, friendID uint64) (bool, error) {
	ok, err := exists(ctx, r.DB, "SELECT 1 FROM user_friends WHERE user_id=? AND friend_id=? LIMIT 1", userID, friendID)
	if err != nil || ok {
		return false, err
	}
	if _, err := r.DB.ExecContext(ctx, "INSERT INTO user_friends (user_id, friend_id) VALUES (?,?)", userID, friendID); err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, classify(err)
	}
	return true, nil
}

// RemoveFriend deletes the userID -> friendID edge and reports whether it
// existed.
func (r *UserRepo) RemoveFriend(ctx context.Context, userID, friendID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM user_friends WHERE user_id=? AND friend_id=?", userID, friendID)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// Friends returns the users that userID follows, ordered by id.
func (r *UserRepo) Friends(ctx context.Context, userID uint64) ([]model.User, error) {
	return r.query(ctx, userSelect+" JOIN user_friends f ON f.friend_id = u.id WHERE f.user_id=? ORDER BY u.id", userID)
}

// FriendIDs returns the ids of the users that userID follows.
func (r *UserRepo) FriendIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT friend_id FROM user_friends WHERE user_id=? ORDER BY friend_id", userID)
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

// CommonFriends returns the users followed by both userA and userB.
func (r *UserRepo) CommonFriends(ctx context.Context, userA, userB uint64) ([]model.User, error) {
	return r.query(ctx, userSelect+`
		JOIN user_friends fa ON fa.friend_id = u.id AND fa.user_id=?
		JOIN user_friends fb ON fb.friend_id = u.id AND fb.user_id=?
		ORDER BY u.id`, userA, userB)
}

func (r *UserRepo) query(ctx context.Context, q string, args ...any) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		var (
			u        model.User
			birthday sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.Login, &u.Name, &birthday); err != nil {
			return nil, classify(err)
		}
		if birthday.Valid {
			b := birthday.Time.UTC()
			u.Birthday = &b
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func birthdayArg(u model.User) any {
	if u.Birthday == nil {
		return nil
	}
	return u.Birthday.Format(model.DateLayout)
}
