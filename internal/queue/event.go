// Package queue defines the feed event payload exchanged over RabbitMQ, the
// publisher that sends it and the consumer that persists it.
package queue

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/iliyamo/film-catalog/internal/model"
)

// FeedEventMessage is published whenever a user likes or unlikes a film or
// follows or unfollows another user. It carries everything needed to write
// the user_feed row without querying the primary database.
type FeedEventMessage struct {
	Timestamp int64  `json:"timestamp"`
	UserID    uint64 `json:"user_id"`
	EventType string `json:"event_type"`
	Operation string `json:"operation"`
	EntityID  uint64 `json:"entity_id"`
}

func messageFrom(ev model.FeedEvent) FeedEventMessage {
	return FeedEventMessage{
		Timestamp: ev.Timestamp,
		UserID:    ev.UserID,
		EventType: ev.EventType,
		Operation: ev.Operation,
		EntityID:  ev.EntityID,
	}
}

// Event converts the message back into a feed event without an id.
func (m FeedEventMessage) Event() model.FeedEvent {
	return model.FeedEvent{
		Timestamp: m.Timestamp,
		UserID:    m.UserID,
		EventType: m.EventType,
		Operation: m.Operation,
		EntityID:  m.EntityID,
	}
}

// Encode marshals ev for the wire.
func Encode(ev model.FeedEvent) ([]byte, error) {
	return json.Marshal(messageFrom(ev))
}

// Decode unmarshals and checks a message body.
func Decode(body []byte) (FeedEventMessage, error) {
	var m FeedEventMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return m, fmt.Errorf("unmarshal: %w", err)
	}
	switch m.EventType {
	case model.EventLike, model.EventFriend, model.EventReview:
	default:
		return m, fmt.Errorf("unknown event type %q", m.EventType)
	}
	switch m.Operation {
	case model.OpAdd, model.OpRemove, model.OpUpdate:
	default:
		return m, fmt.Errorf("unknown operation %q", m.Operation)
	}
	if m.UserID == 0 || m.EntityID == 0 {
		return m, fmt.Errorf("event without user or entity id")
	}
	return m, nil
}
