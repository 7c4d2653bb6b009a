// Package service publishes auth events to RabbitMQ. Publishing never
// blocks or fails a request: events are queued in memory and delivered by
// a background dispatcher, and delivery errors are only logged.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auth-service/internal/queue"
)

// EventPublisher accepts auth events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// NopPublisher drops every event. Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.AuthEvent) error { return nil }

// AMQPPublisher publishes each event to the durable auth.events queue on
// the default exchange. Messages are marked as persistent.
type AMQPPublisher struct {
	URL string
}

// Publish dials, declares the queue (idempotent) and publishes one message.
func (p AMQPPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
	pub, err := newPublishing(ev)
	if err != nil {
		return err
	}

	// amqp.Dial waits up to 30s for a dead broker; stay within ctx instead.
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(dialTimeout(ctx)),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.AuthEventsQueue, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		queue.AuthEventsQueue, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// dialTimeout is the time left before ctx's deadline, or 30s without one.
func dialTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left > 0 {
			return left
		}
		return time.Millisecond
	}
	return 30 * time.Second
}

func newPublishing(ev queue.AuthEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}, nil
}

// Dispatcher buffers events and hands them to the underlying publisher
// from a single goroutine started with Run.
type Dispatcher struct {
	next    EventPublisher
	log     logrus.FieldLogger
	events  chan queue.AuthEvent
	timeout time.Duration
	drain   time.Duration
}

func NewDispatcher(next EventPublisher, log logrus.FieldLogger, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	return &Dispatcher{
		next:    next,
		log:     log.WithField("component", "event-dispatcher"),
		events:  make(chan queue.AuthEvent, buffer),
		timeout: 5 * time.Second,
		drain:   5 * time.Second,
	}
}

// Publish enqueues ev without blocking. A full buffer drops the event.
func (d *Dispatcher) Publish(_ context.Context, ev queue.AuthEvent) error {
	select {
	case d.events <- ev:
	default:
		d.log.WithField("event", ev.Type).Warn("event buffer full; dropping event")
	}
	return nil
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already buffered. The drain is bounded by the drain timeout and stops at
// the first failed delivery; anything left is dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			d.drainBuffered()
			return nil
		}
		select {
		case ev := <-d.events:
			_ = d.deliver(context.Background(), ev)
		case <-ctx.Done():
		}
	}
}

func (d *Dispatcher) drainBuffered() {
	ctx, cancel := context.WithTimeout(context.Background(), d.drain)
	defer cancel()
	for {
		select {
		case ev := <-d.events:
			if err := d.deliver(ctx, ev); err != nil {
				if n := len(d.events); n > 0 {
					d.log.WithField("dropped", n).Warn("shutdown: dropping undelivered events")
				}
				return
			}
		default:
			return
		}
	}
}

// deliver publishes ev within the per-event timeout, never past parent.
func (d *Dispatcher) deliver(parent context.Context, ev queue.AuthEvent) error {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()
	err := d.next.Publish(ctx, ev)
	if err != nil {
		d.log.WithError(err).WithField("event", ev.Type).Warn("publish event failed")
	}
	return err
}
