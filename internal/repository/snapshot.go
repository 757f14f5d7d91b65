package repository

import (
	"context"
	"database/sql"
)

// Snapshots opens consistent read views over the film tables. Film rows
// and their genres, directors and likes read inside one view come from the
// same read-only REPEATABLE READ transaction, so a concurrent write is
// either fully visible to the view or not at all. InnoDB serves such reads
// from a snapshot without taking locks.
type Snapshots struct {
	db *sql.DB
}

// NewSnapshots constructs Snapshots over db.
func NewSnapshots(db *sql.DB) *Snapshots { return &Snapshots{db: db} }

// View runs fn with a film reader and a batch loader bound to one
// read-only transaction. The transaction is always rolled back; fn must
// not retain either value after it returns.
func (s *Snapshots) View(ctx context.Context, fn func(films *FilmRepo, loader *BatchLoader) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&FilmRepo{db: s.db, q: tx}, NewBatchLoader(tx))
}
