package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrPublisherFull is returned when the outgoing buffer is full and
	// the event was dropped.
	ErrPublisherFull = errors.New("seat event buffer full")
	// ErrPublisherClosed is returned after Close.
	ErrPublisherClosed = errors.New("seat event publisher closed")
	errDialBackoff     = errors.New("broker unavailable, waiting before redial")
)

// Publisher defaults.
const (
	DefaultBufferSize  = 1024
	DefaultDialTimeout = 2 * time.Second
	DefaultRetryAfter  = 5 * time.Second
	publishTimeout     = 5 * time.Second
)

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithBufferSize sets how many events may wait for the broker.
func WithBufferSize(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

// WithDialTimeout bounds the TCP connect and the AMQP handshake.
func WithDialTimeout(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

// WithRetryAfter sets how long a failed dial suppresses the next one.
func WithRetryAfter(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		if d > 0 {
			p.retryAfter = d
		}
	}
}

// Publisher sends SeatChangedEvents to SeatsQueueName.  NotifySeatsChanged
// only enqueues; one background goroutine owns the broker connection, so
// a slow or dead broker never holds up the caller.  While the broker is
// unreachable events are dropped with a warning.
type Publisher struct {
	url         string
	logger      *slog.Logger
	bufferSize  int
	dialTimeout time.Duration
	retryAfter  time.Duration

	events    chan SeatChangedEvent
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Owned by run.
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
}

// NewPublisher starts the publishing goroutine.  The broker is dialed on
// the first event.  Call Close to flush and stop.
func NewPublisher(url string, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		url:         url,
		logger:      logger,
		bufferSize:  DefaultBufferSize,
		dialTimeout: DefaultDialTimeout,
		retryAfter:  DefaultRetryAfter,
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.events = make(chan SeatChangedEvent, p.bufferSize)
	go p.run()
	return p
}

// NotifySeatsChanged queues ev for publishing and returns at once.  A
// missing MessageID or OccurredAt is filled in.
func (p *Publisher) NotifySeatsChanged(ctx context.Context, ev SeatChangedEvent) error {
	if ev.MessageID == "" {
		ev.MessageID = uuid.NewString()
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}
	select {
	case p.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.Warn("rabbitmq: buffer full, dropping seat event", "event_id", ev.EventID, "op", ev.Op, "message_id", ev.MessageID)
		return ErrPublisherFull
	}
}

// Close publishes what is still buffered, then releases the connection.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	<-p.stopped
	return nil
}

func (p *Publisher) run() {
	defer close(p.stopped)
	defer p.reset()

	for {
		select {
		case ev := <-p.events:
			p.publish(ev)
		case <-p.done:
			for {
				select {
				case ev := <-p.events:
					p.publish(ev)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) publish(ev SeatChangedEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("rabbitmq: marshal event failed", "err", err)
		return
	}
	ch, err := p.channel()
	if err != nil {
		p.logger.Warn("rabbitmq: dropping seat event", "err", err, "event_id", ev.EventID, "op", ev.Op, "message_id", ev.MessageID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.MessageID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", SeatsQueueName, false, false, pub); err != nil {
		p.logger.Error("rabbitmq: publish failed", "err", err, "event_id", ev.EventID, "op", ev.Op)
		p.reset()
	}
}

// channel returns the open channel, dialing and declaring the queue
// first when needed.  After a failed dial it refuses to redial until
// retryAfter has passed.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if time.Now().Before(p.nextDial) {
		return nil, errDialBackoff
	}

	ch, err := p.dial()
	if err != nil {
		p.nextDial = time.Now().Add(p.retryAfter)
		return nil, err
	}
	return ch, nil
}

func (p *Publisher) dial() (*amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(SeatsQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
