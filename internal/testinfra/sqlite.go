// Package testinfra provides shared fixtures for package tests: an
// in-memory SQLite store migrated with the production schema, and short
// helpers to seed films, users and likes.
package testinfra

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for in-memory testing

	"github.com/iliyamo/film-catalog/internal/database"
)

var dbSeq atomic.Int64

// NewDB opens a fresh in-memory SQLite database, applies the schema and
// registers cleanup on t. Each call gets its own named database so tests
// never observe each other's rows. The pool is limited to one connection,
// which serialises concurrent queries the way a single SQLite file would.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:filmdb%d?mode=memory&cache=shared&_foreign_keys=1", dbSeq.Add(1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(context.Background(), db, database.SQLite); err != nil {
		_ = db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewFileDB opens a migrated SQLite database in a temporary file with
// write-ahead logging and an unlimited pool. Unlike NewDB, a reader holding
// a transaction here keeps its snapshot while writers commit on other
// connections.
func NewFileDB(t testing.TB) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "film.db") + "?_journal_mode=WAL&_foreign_keys=1&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(context.Background(), db, database.SQLite); err != nil {
		_ = db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// InsertFilm inserts a bare film row with rating 1 and returns its id.
func InsertFilm(t testing.TB, db *sql.DB, name string, release time.Time) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO films (name, description, release_date, duration, mpa_id) VALUES (?, ?, ?, ?, ?)`,
		name, name+" description", release.Format("2006-01-02"), 100, 1)
	if err != nil {
		t.Fatalf("insert film %q: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return uint64(id)
}

// InsertUser inserts a user with the given login and returns its id.
func InsertUser(t testing.TB, db *sql.DB, login string) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (email, login, name) VALUES (?, ?, ?)`, login+"@example.com", login, login)
	if err != nil {
		t.Fatalf("insert user %q: %v", login, err)
	}
	id, _ := res.LastInsertId()
	return uint64(id)
}

// Like records that userID liked filmID.
func Like(t testing.TB, db *sql.DB, filmID, userID uint64) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO film_likes (film_id, user_id) VALUES (?, ?)`, filmID, userID); err != nil {
		t.Fatalf("like film %d by %d: %v", filmID, userID, err)
	}
}

// SetGenres attaches genres to filmID.
func SetGenres(t testing.TB, db *sql.DB, filmID uint64, genreIDs ...uint64) {
	t.Helper()
	for _, g := range genreIDs {
		if _, err := db.Exec(`INSERT INTO film_genres (film_id, genre_id) VALUES (?, ?)`, filmID, g); err != nil {
			t.Fatalf("set genre %d on film %d: %v", g, filmID, err)
		}
	}
}

// InsertDirector inserts a director and returns its id.
func InsertDirector(t testing.TB, db *sql.DB, name string) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO directors (name) VALUES (?)`, name)
	if err != nil {
		t.Fatalf("insert director %q: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return uint64(id)
}

// SetDirectors attaches directors to filmID.
func SetDirectors(t testing.TB, db *sql.DB, filmID uint64, directorIDs ...uint64) {
	t.Helper()
	for _, d := range directorIDs {
		if _, err := db.Exec(`INSERT INTO film_directors (film_id, director_id) VALUES (?, ?)`, filmID, d); err != nil {
			t.Fatalf("set director %d on film %d: %v", d, filmID, err)
		}
	}
}
