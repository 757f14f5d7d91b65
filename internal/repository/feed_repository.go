package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/film-catalog/internal/model"
)

// FeedRepo persists user activity events in user_feed.
type FeedRepo struct {
	db *sql.DB
}

// NewFeedRepo constructs a FeedRepo.
func NewFeedRepo(db *sql.DB) *FeedRepo { return &FeedRepo{db: db} }

// Insert stores ev and returns the assigned event id. ev.EventID is ignored.
func (r *FeedRepo) Insert(ctx context.Context, ev model.FeedEvent) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_feed (timestamp, user_id, event_type, operation, entity_id) VALUES (?, ?, ?, ?, ?)`,
		ev.Timestamp, ev.UserID, ev.EventType, ev.Operation, ev.EntityID)
	if err != nil {
		return 0, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classify(err)
	}
	return uint64(id), nil
}

// ListForUsers returns the events performed by any of userIDs, oldest
// first; events with equal timestamps keep insertion order.
func (r *FeedRepo) ListForUsers(ctx context.Context, userIDs []uint64) ([]model.FeedEvent, error) {
	out := []model.FeedEvent{}
	userIDs = dedupe(userIDs)
	if len(userIDs) == 0 {
		return out, nil
	}
	in, args := inClause(userIDs)
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, timestamp, user_id, event_type, operation, entity_id FROM user_feed
		 WHERE user_id IN `+in+` ORDER BY timestamp ASC, event_id ASC`, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var ev model.FeedEvent
		if err := rows.Scan(&ev.EventID, &ev.Timestamp, &ev.UserID, &ev.EventType, &ev.Operation, &ev.EntityID); err != nil {
			return nil, classify(err)
		}
		out = append(out, ev)
	}
	return out, classify(rows.Err())
}
