package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// dial is a seam for tests.
var dial = amqp.Dial

// StartAuditConsumer connects to RabbitMQ, declares the auth.events queue
// (durable) and writes every event to the audit logger. It reconnects with
// exponential backoff and returns only when ctx is cancelled.
func StartAuditConsumer(ctx context.Context, url string, log logrus.FieldLogger) error {
	log = log.WithField("component", "audit-consumer")

	backoff := time.Second
	for {
		conn, err := dial(url)
		if err != nil {
			log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, log logrus.FieldLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("set QoS failed")
	}

	if _, err := ch.QueueDeclare(AuthEventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, AuthEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, log); err != nil {
			log.WithError(err).Warn("handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, log logrus.FieldLogger) error {
	var ev AuthEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}

	entry := log.WithFields(logrus.Fields{
		"event":       ev.Type,
		"occurred_at": ev.OccurredAt,
	})
	if ev.UserID != "" {
		entry = entry.WithField("user_id", ev.UserID)
	}
	if len(ev.Roles) > 0 {
		entry = entry.WithField("roles", ev.Roles)
	}
	if ev.Reason != "" {
		entry = entry.WithField("reason", ev.Reason)
	}
	if ev.RemoteIP != "" {
		entry = entry.WithField("remote_ip", ev.RemoteIP)
	}
	if ev.RequestID != "" {
		entry = entry.WithField("request_id", ev.RequestID)
	}

	if ev.Type == EventLoginFailed {
		entry.Warn("audit")
	} else {
		entry.Info("audit")
	}
	return nil
}

// sleep waits for d or until ctx is done; it reports whether the full
// duration elapsed.
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
