// Package service holds outbound integrations used by the HTTP layer.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/line-seat-reservation/internal/logging"
	q "github.com/iliyamo/line-seat-reservation/internal/queue"
)

var (
	// ErrPublisherClosed is returned by PublishReservationConfirmed after Close.
	ErrPublisherClosed = errors.New("publisher closed")
	// ErrPublishQueueFull is returned when the outbound buffer is full.
	ErrPublishQueueFull = errors.New("publish queue full")
)

// PublisherConfig tunes a QueuePublisher.  Zero values select the defaults.
type PublisherConfig struct {
	Buffer      int           // events held while the broker is slow (default 256)
	SendTimeout time.Duration // dial plus publish budget per event (default 5s)
	CloseGrace  time.Duration // time Close waits for buffered events (default SendTimeout)
}

func (c PublisherConfig) normalized() PublisherConfig {
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 5 * time.Second
	}
	if c.CloseGrace <= 0 {
		c.CloseGrace = c.SendTimeout
	}
	return c
}

// QueuePublisher publishes reservation events to RabbitMQ.
//
// PublishReservationConfirmed only enqueues; a single background worker
// owns the connection and channel, dials on demand and sends each event
// within SendTimeout.  A slow or hung broker therefore never delays the
// caller.  Events that cannot be sent are logged and dropped.
type QueuePublisher struct {
	url    string
	cfg    PublisherConfig
	logger *slog.Logger

	mu     sync.RWMutex // guards closed and sends on events
	closed bool
	events chan q.ReservationConfirmedEvent

	stop context.Context
	halt context.CancelFunc
	done chan struct{}

	// Owned by the worker goroutine.
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewQueuePublisher returns a publisher for url and starts its worker.
// The connection is opened with the first event.
func NewQueuePublisher(url string, logger *slog.Logger, cfg PublisherConfig) *QueuePublisher {
	cfg = cfg.normalized()
	stop, halt := context.WithCancel(context.Background())
	p := &QueuePublisher{
		url:    url,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "queue-publisher")),
		events: make(chan q.ReservationConfirmedEvent, cfg.Buffer),
		stop:   stop,
		halt:   halt,
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishReservationConfirmed hands ev to the background worker without
// waiting on the broker.  ctx is only checked for cancellation.
func (p *QueuePublisher) PublishReservationConfirmed(ctx context.Context, ev q.ReservationConfirmedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

func (p *QueuePublisher) run() {
	defer close(p.done)
	defer p.disconnect()
	for ev := range p.events {
		ctx, cancel := context.WithTimeout(p.stop, p.cfg.SendTimeout)
		if err := p.send(ctx, ev); err != nil {
			logging.LogError(p.logger, "publish failed", err, slog.String("reservation_number", ev.ReservationNumber))
			// Drop the connection so the next event redials.
			p.disconnect()
		}
		cancel()
	}
}

// send publishes ev as a persistent JSON message with a fresh message ID.
func (p *QueuePublisher) send(ctx context.Context, ev q.ReservationConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         q.ReservationConfirmedQueue,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ReservationConfirmedQueue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.logger.Debug("reservation event published",
		slog.String("message_id", msg.MessageId),
		slog.String("reservation_number", ev.ReservationNumber))
	return nil
}

// channel returns an open channel, dialing when needed.
func (p *QueuePublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(ctx)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.ReservationConfirmedQueue, true, false, false, false, nil); err != nil {
		logging.SafeCloseWithLogging(ch, p.logger, "amqp_channel")
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// dial opens a connection within ctx.  The TCP connect and the AMQP
// handshake both end when ctx does; the library clears the deadline once
// the connection is open.
func (p *QueuePublisher) dial(ctx context.Context) (*amqp.Connection, error) {
	var stops []func() bool
	cfg := amqp.Config{Dial: func(network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				conn.Close()
				return nil, err
			}
		}
		stops = append(stops, context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) }))
		return conn, nil
	}}
	conn, err := amqp.DialConfig(p.url, cfg)
	for _, stop := range stops {
		stop()
	}
	return conn, err
}

func (p *QueuePublisher) disconnect() {
	if p.ch != nil && !p.ch.IsClosed() {
		logging.SafeCloseWithLogging(p.ch, p.logger, "amqp_channel")
	}
	if p.conn != nil && !p.conn.IsClosed() {
		logging.SafeCloseWithLogging(p.conn, p.logger, "amqp_connection")
	}
	p.ch, p.conn = nil, nil
}

// Close stops accepting events and waits up to CloseGrace for the buffered
// ones to be sent.  Whatever is left after that is dropped.
func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	t := time.NewTimer(p.cfg.CloseGrace)
	defer t.Stop()
	select {
	case <-p.done:
	case <-t.C:
		p.logger.Warn("publisher closed with events pending", slog.Int("pending", len(p.events)))
		p.halt()
		<-p.done
	}
	p.halt()
	return nil
}
