package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Dialect selects the column and index syntax used by Migrate. The
// production store is MySQL; SQLite is used by the test suite.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite3"
)

// mysqlDupKeyName is returned by MySQL when CREATE INDEX names an index
// that already exists.
const mysqlDupKeyName = 1061

var tables = []string{
	`CREATE TABLE IF NOT EXISTS mpa_ratings (
		id {{id}} NOT NULL PRIMARY KEY,
		name VARCHAR(16) NOT NULL,
		description VARCHAR(255) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		id {{id}} NOT NULL PRIMARY KEY,
		name VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS directors (
		id {{pk}},
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS films (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		description VARCHAR(200) NOT NULL DEFAULT '',
		release_date DATE NOT NULL,
		duration INTEGER NOT NULL,
		mpa_id {{id}} NULL,
		FOREIGN KEY (mpa_id) REFERENCES mpa_ratings (id)
	)`,
	`CREATE TABLE IF NOT EXISTS film_genres (
		film_id {{id}} NOT NULL,
		genre_id {{id}} NOT NULL,
		PRIMARY KEY (film_id, genre_id),
		FOREIGN KEY (film_id) REFERENCES films (id),
		FOREIGN KEY (genre_id) REFERENCES genres (id)
	)`,
	`CREATE TABLE IF NOT EXISTS film_directors (
		film_id {{id}} NOT NULL,
		director_id {{id}} NOT NULL,
		PRIMARY KEY (film_id, director_id),
		FOREIGN KEY (film_id) REFERENCES films (id),
		FOREIGN KEY (director_id) REFERENCES directors (id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		email VARCHAR(255) NOT NULL,
		login VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		birthday DATE NULL
	)`,
	`CREATE TABLE IF NOT EXISTS film_likes (
		film_id {{id}} NOT NULL,
		user_id {{id}} NOT NULL,
		PRIMARY KEY (film_id, user_id),
		FOREIGN KEY (film_id) REFERENCES films (id),
		FOREIGN KEY (user_id) REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_friends (
		user_id {{id}} NOT NULL,
		friend_id {{id}} NOT NULL,
		PRIMARY KEY (user_id, friend_id),
		FOREIGN KEY (user_id) REFERENCES users (id),
		FOREIGN KEY (friend_id) REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_feed (
		event_id {{pk}},
		timestamp BIGINT NOT NULL,
		user_id {{id}} NOT NULL,
		event_type VARCHAR(16) NOT NULL,
		operation VARCHAR(16) NOT NULL,
		entity_id {{id}} NOT NULL
	)`,
}

// Secondary indexes. The composite primary keys already cover lookups by
// their leading column.
var indexes = []string{
	`CREATE INDEX idx_film_likes_user ON film_likes (user_id)`,
	`CREATE INDEX idx_film_genres_genre ON film_genres (genre_id)`,
	`CREATE INDEX idx_film_directors_director ON film_directors (director_id)`,
	`CREATE INDEX idx_user_friends_friend ON user_friends (friend_id)`,
	`CREATE INDEX idx_user_feed_user ON user_feed (user_id)`,
	`CREATE INDEX idx_films_release_date ON films (release_date)`,
}

// Reference data loaded into empty tables.
var (
	seedRatings = []struct {
		ID                uint64
		Name, Description string
	}{
		{1, "G", "no age restrictions"},
		{2, "PG", "parental guidance suggested"},
		{3, "PG-13", "not recommended under 13"},
		{4, "R", "under 17 requires accompanying adult"},
		{5, "NC-17", "no one 17 and under admitted"},
	}
	seedGenres = []string{"Comedy", "Drama", "Cartoon", "Thriller", "Documentary", "Action"}
)

func render(stmt string, d Dialect) string {
	var r *strings.Replacer
	switch d {
	case SQLite:
		r = strings.NewReplacer("{{id}}", "INTEGER", "{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT")
	default:
		r = strings.NewReplacer("{{id}}", "BIGINT UNSIGNED", "{{pk}}", "BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY")
	}
	return r.Replace(stmt)
}

// Migrate creates the schema when it does not exist yet and seeds the
// MPA rating and genre reference tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range tables {
		if _, err := db.ExecContext(ctx, render(stmt, d)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, stmt := range indexes {
		q := stmt
		if d == SQLite {
			q = strings.Replace(stmt, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1)
		}
		if _, err := db.ExecContext(ctx, q); err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == mysqlDupKeyName {
				continue
			}
			return fmt.Errorf("create index: %w", err)
		}
	}
	return seed(ctx, db)
}

func seed(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mpa_ratings`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		for _, r := range seedRatings {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO mpa_ratings (id, name, description) VALUES (?, ?, ?)`,
				r.ID, r.Name, r.Description); err != nil {
				return fmt.Errorf("seed mpa_ratings: %w", err)
			}
		}
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM genres`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		for i, name := range seedGenres {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO genres (id, name) VALUES (?, ?)`, i+1, name); err != nil {
				return fmt.Errorf("seed genres: %w", err)
			}
		}
	}
	return nil
}
