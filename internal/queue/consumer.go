package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/film-catalog/internal/config"
	"github.com/iliyamo/film-catalog/internal/logging"
	"github.com/iliyamo/film-catalog/internal/metrics"
	"github.com/iliyamo/film-catalog/internal/repository"
)

// Consumer reads the feed queue and writes each event into user_feed.
type Consumer struct {
	cfg config.QueueConfig
	w   FeedWriter

	// requeueDelay paces redeliveries while the store is unavailable.
	requeueDelay time.Duration
}

func NewConsumer(cfg config.QueueConfig, w FeedWriter) *Consumer {
	return &Consumer{cfg: cfg, w: w, requeueDelay: time.Second}
}

// Run connects to RabbitMQ, declares the durable feed queue and consumes
// until ctx is cancelled. Lost connections are redialed with exponential
// backoff capped at 30s. A message that fails to decode is logged and
// rejected without requeue. A message the store could not take is
// requeued.
func (c *Consumer) Run(ctx context.Context) error {
	log := logging.WithComponent("feed-consumer")
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	log := logging.WithComponent("feed-consumer")
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := declareQueue(ch, c.cfg.Queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(ctx, d)
		}
	}
}

// settle processes one delivery and acks, requeues or drops it.
func (c *Consumer) settle(ctx context.Context, d amqp.Delivery) {
	log := logging.WithComponent("feed-consumer")
	err := c.handleMessage(ctx, d.Body)
	switch {
	case err == nil:
		metrics.FeedEventsConsumed.WithLabelValues("ok").Inc()
		_ = d.Ack(false)
	case retryable(err):
		log.Warn().Err(err).Str("message_id", d.MessageId).Dur("retry_in", c.requeueDelay).Msg("store unavailable; requeueing message")
		metrics.FeedEventsConsumed.WithLabelValues("requeued").Inc()
		sleep(ctx, c.requeueDelay)
		_ = d.Nack(false, true)
	default:
		log.Error().Err(err).Str("message_id", d.MessageId).Msg("handle message failed")
		metrics.FeedEventsConsumed.WithLabelValues("rejected").Inc()
		_ = d.Nack(false, false)
	}
}

// retryable reports whether a failed message may succeed on redelivery.
func retryable(err error) bool {
	return errors.Is(err, repository.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	m, err := Decode(body)
	if err != nil {
		return err
	}
	if _, err := c.w.Insert(ctx, m.Event()); err != nil {
		return fmt.Errorf("store event: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
