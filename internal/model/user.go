package model

import "time"

// User represents an application user record as stored in the `users`
// table. Users and films are peers linked through film_likes; neither owns
// the other.
//
// Fields:
//
//	ID       – primary key identifier of the user.
//	Email    – contact address.
//	Login    – unique login handle.
//	Name     – display name; defaults to Login when empty.
//	Birthday – optional date of birth.
type User struct {
	ID       uint64     `json:"id"`
	Email    string     `json:"email"`
	Login    string     `json:"login"`
	Name     string     `json:"name"`
	Birthday *time.Time `json:"birthday,omitempty"`
}

// Friendship models a row in `user_friends`. The relation is directional:
// UserID follows FriendID.
type Friendship struct {
	UserID   uint64
	FriendID uint64
}

// Feed event types and operations as stored in `user_feed`.
const (
	EventLike   = "LIKE"
	EventFriend = "FRIEND"
	EventReview = "REVIEW"

	OpAdd    = "ADD"
	OpRemove = "REMOVE"
	OpUpdate = "UPDATE"
)

// FeedEvent models a row in the `user_feed` table.
//
// Fields:
//
//	EventID   – primary key, assigned on insert.
//	Timestamp – unix milliseconds when the action happened.
//	UserID    – user who performed the action.
//	EventType – LIKE, FRIEND or REVIEW.
//	Operation – ADD, REMOVE or UPDATE.
//	EntityID  – film id for LIKE, friend id for FRIEND.
type FeedEvent struct {
	EventID   uint64 `json:"eventId"`
	Timestamp int64  `json:"timestamp"`
	UserID    uint64 `json:"userId"`
	EventType string `json:"eventType"`
	Operation string `json:"operation"`
	EntityID  uint64 `json:"entityId"`
}
