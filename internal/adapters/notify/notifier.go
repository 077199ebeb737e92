// Package notify delivers workflow notifications through RabbitMQ.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nursix/gims/internal/ports/secondary"
)

// channel is the subset of *amqp.Channel used by the notifier.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Notifier publishes notifications as JSON messages to a durable queue.
// A mail worker consuming the queue renders and delivers them.
type Notifier struct {
	conn  *amqp.Connection
	ch    channel
	queue string
	now   func() time.Time
}

// Dial connects to the broker at url and declares the notification queue.
func Dial(url, queue string) (*Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	n, err := newNotifier(ch, queue)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

func newNotifier(ch channel, queue string) (*Notifier, error) {
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &Notifier{ch: ch, queue: queue, now: time.Now}, nil
}

// Send publishes a notification. Messages are persistent; the message ID
// is the notification ID, generated if empty.
func (n *Notifier) Send(ctx context.Context, msg secondary.Notification) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = n.now().UTC()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         msg.Template,
		Timestamp:    msg.CreatedAt,
		Body:         body,
	}

	if err := n.ch.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		return fmt.Errorf("failed to publish notification %s: %w", msg.ID, err)
	}
	return nil
}

// Close closes the channel and the broker connection.
func (n *Notifier) Close() error {
	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LogNotifier writes notifications to the structured log. Used when no
// broker is configured.
type LogNotifier struct{}

// Send logs the notification.
func (LogNotifier) Send(ctx context.Context, msg secondary.Notification) error {
	slog.InfoContext(ctx, "notification",
		"template", msg.Template,
		"recipients", msg.Recipients,
		"cc", msg.CC,
		"resource", msg.Module+"/"+msg.Resource,
	)
	return nil
}

var (
	_ secondary.Notifier = (*Notifier)(nil)
	_ secondary.Notifier = LogNotifier{}
)
