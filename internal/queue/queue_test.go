package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/film-catalog/internal/config"
	"github.com/iliyamo/film-catalog/internal/model"
	"github.com/iliyamo/film-catalog/internal/repository"
)

type memWriter struct {
	events []model.FeedEvent
	err    error
}

func (m *memWriter) Insert(_ context.Context, ev model.FeedEvent) (uint64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.events = append(m.events, ev)
	return uint64(len(m.events)), nil
}

func likeEvent() model.FeedEvent {
	return model.FeedEvent{Timestamp: 1700000000000, UserID: 3, EventType: model.EventLike, Operation: model.OpAdd, EntityID: 9}
}

func TestEncodeDecode(t *testing.T) {
	body, err := Encode(likeEvent())
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":1700000000000,"user_id":3,"event_type":"LIKE","operation":"ADD","entity_id":9}`, string(body))

	m, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, likeEvent(), m.Event())
}

func TestDecode_RejectsBadPayloads(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"user_id":1,"event_type":"POKE","operation":"ADD","entity_id":1}`,
		`{"user_id":1,"event_type":"LIKE","operation":"SMASH","entity_id":1}`,
		`{"user_id":0,"event_type":"LIKE","operation":"ADD","entity_id":1}`,
	} {
		_, err := Decode([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestConsumer_HandleMessage(t *testing.T) {
	w := &memWriter{}
	c := NewConsumer(config.QueueConfig{}, w)
	body, _ := Encode(likeEvent())

	require.NoError(t, c.handleMessage(context.Background(), body))
	require.Len(t, w.events, 1)
	assert.Equal(t, uint64(9), w.events[0].EntityID)

	w.err = errors.New("disk full")
	assert.ErrorContains(t, c.handleMessage(context.Background(), body), "store event")
	assert.Error(t, c.handleMessage(context.Background(), []byte(`{}`)))
}

// recordingAck records how each delivery was settled.
type recordingAck struct {
	acked    []uint64
	requeued []uint64
	dropped  []uint64
}

func (a *recordingAck) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *recordingAck) Nack(tag uint64, _ bool, requeue bool) error {
	if requeue {
		a.requeued = append(a.requeued, tag)
	} else {
		a.dropped = append(a.dropped, tag)
	}
	return nil
}

func (a *recordingAck) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func TestConsumer_SettleRequeuesWhileStoreIsDown(t *testing.T) {
	w := &memWriter{}
	c := NewConsumer(config.QueueConfig{}, w)
	c.requeueDelay = 0
	ack := &recordingAck{}
	body, _ := Encode(likeEvent())
	deliver := func(tag uint64, body []byte) {
		c.settle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: body})
	}

	w.err = fmt.Errorf("insert feed event: %w", repository.ErrStoreUnavailable)
	deliver(1, body)
	w.err = context.DeadlineExceeded
	deliver(2, body)
	w.err = fmt.Errorf("insert feed event: %w", repository.ErrIntegrityViolation)
	deliver(3, body)
	w.err = nil
	deliver(4, []byte(`not json`))
	deliver(5, body)

	assert.Equal(t, []uint64{1, 2}, ack.requeued)
	assert.Equal(t, []uint64{3, 4}, ack.dropped)
	assert.Equal(t, []uint64{5}, ack.acked)
	require.Len(t, w.events, 1)
}

func TestPublisher_BreakerOpensAfterFailures(t *testing.T) {
	p := NewPublisher(config.QueueConfig{
		URL:                "amqp://unused",
		Queue:              "films.feed.test",
		BreakerFailures:    2,
		BreakerTimeout:     time.Minute,
		BreakerMaxRequests: 1,
	})
	dials := 0
	p.dial = func(string) (channelOpener, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	ctx := context.Background()
	assert.ErrorContains(t, p.Publish(ctx, likeEvent()), "dial broker")
	assert.ErrorContains(t, p.Publish(ctx, likeEvent()), "dial broker")
	assert.Equal(t, "open", p.State())

	err := p.Publish(ctx, likeEvent())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, dials)
}

func TestDirectPublisher(t *testing.T) {
	w := &memWriter{}
	require.NoError(t, NewDirectPublisher(w).Publish(context.Background(), likeEvent()))
	assert.Len(t, w.events, 1)
}
