package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/iliyamo/film-catalog/internal/config"
	"github.com/iliyamo/film-catalog/internal/logging"
	"github.com/iliyamo/film-catalog/internal/metrics"
	"github.com/iliyamo/film-catalog/internal/model"
)

// FeedWriter persists feed events. repository.FeedRepo implements it.
type FeedWriter interface {
	Insert(ctx context.Context, ev model.FeedEvent) (uint64, error)
}

// channelOpener is the part of an AMQP connection the publisher needs.
type channelOpener interface {
	Channel() (*amqp.Channel, error)
	IsClosed() bool
	Close() error
}

// Publisher sends feed events to the durable feed queue. The broker
// connection is dialed lazily and redialed after it closes. Publishing is
// guarded by a circuit breaker: after repeated failures calls fail fast
// until the breaker's timeout elapses.
type Publisher struct {
	cfg     config.QueueConfig
	breaker *gobreaker.CircuitBreaker[struct{}]
	dial    func(url string) (channelOpener, error)

	mu   sync.Mutex
	conn channelOpener
}

// NewPublisher constructs a Publisher. No connection is made until the
// first Publish.
func NewPublisher(cfg config.QueueConfig) *Publisher {
	p := &Publisher{
		cfg: cfg,
		dial: func(url string) (channelOpener, error) {
			return amqp.Dial(url)
		},
	}
	p.breaker = newBreaker("feed-publisher", cfg)
	return p
}

func newBreaker(name string, cfg config.QueueConfig) *gobreaker.CircuitBreaker[struct{}] {
	metrics.BreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerMaxRequests,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// Publish sends ev as a persistent message. The error is returned so the
// caller can log it; it never panics.
func (p *Publisher) Publish(ctx context.Context, ev model.FeedEvent) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	if p.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
		defer cancel()
	}
	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.send(ctx, body)
	})
	switch {
	case err == nil:
		metrics.FeedEventsPublished.WithLabelValues("ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.FeedEventsPublished.WithLabelValues("rejected").Inc()
	default:
		metrics.FeedEventsPublished.WithLabelValues("failed").Inc()
	}
	return err
}

func (p *Publisher) send(ctx context.Context, body []byte) error {
	conn, err := p.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.reset()
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declareQueue(ch, p.cfg.Queue); err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *Publisher) connection() (channelOpener, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := p.dial(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	p.conn = conn
	return conn, nil
}

func (p *Publisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.reset()
	return nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (p *Publisher) State() string {
	return p.breaker.State().String()
}

// declareQueue makes sure the durable feed queue exists.
func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("queue declare: %w", err)
	}
	return q, nil
}

// DirectPublisher writes feed events straight to the store. It is used
// when the broker is disabled.
type DirectPublisher struct {
	w FeedWriter
}

func NewDirectPublisher(w FeedWriter) *DirectPublisher { return &DirectPublisher{w: w} }

func (d *DirectPublisher) Publish(ctx context.Context, ev model.FeedEvent) error {
	_, err := d.w.Insert(ctx, ev)
	return err
}
