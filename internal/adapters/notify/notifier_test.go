package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nursix/gims/internal/ports/secondary"
)

type mockChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	declareErr error
	publishErr error
	closed     bool
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if m.declareErr != nil {
		return amqp.Queue{}, m.declareErr
	}
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	m.declared = append(m.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.keys = append(m.keys, key)
	m.published = append(m.published, msg)
	return nil
}

func (m *mockChannel) Close() error {
	m.closed = true
	return nil
}

func TestNotifier_Send(t *testing.T) {
	ch := &mockChannel{}
	n, err := newNotifier(ch, "gims.notifications")
	if err != nil {
		t.Fatalf("newNotifier failed: %v", err)
	}
	fixed := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	if len(ch.declared) != 1 || ch.declared[0] != "gims.notifications" {
		t.Fatalf("expected queue to be declared, got %v", ch.declared)
	}

	msg := secondary.Notification{
		Template:   "FacilityApproved",
		Recipients: []string{"admin@example.org"},
		Module:     "org",
		Resource:   "facility",
		Data:       map[string]string{"name": "Station 1"},
	}
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(ch.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(ch.published))
	}
	pub := ch.published[0]
	if ch.keys[0] != "gims.notifications" {
		t.Errorf("expected routing key gims.notifications, got %s", ch.keys[0])
	}
	if pub.MessageId == "" || pub.DeliveryMode != amqp.Persistent || pub.Type != "FacilityApproved" {
		t.Errorf("unexpected publishing: %+v", pub)
	}
	if !pub.Timestamp.Equal(fixed) {
		t.Errorf("expected timestamp %s, got %s", fixed, pub.Timestamp)
	}

	var decoded secondary.Notification
	if err := json.Unmarshal(pub.Body, &decoded); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if decoded.ID != pub.MessageId || decoded.Data["name"] != "Station 1" {
		t.Errorf("unexpected body: %+v", decoded)
	}
}

func TestNotifier_KeepsNotificationID(t *testing.T) {
	ch := &mockChannel{}
	n, _ := newNotifier(ch, "q")

	if err := n.Send(context.Background(), secondary.Notification{ID: "fixed-id", Template: "CommissionStatusChanged"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if ch.published[0].MessageId != "fixed-id" {
		t.Errorf("expected fixed-id, got %s", ch.published[0].MessageId)
	}
}

func TestNotifier_Errors(t *testing.T) {
	if _, err := newNotifier(&mockChannel{declareErr: errors.New("access refused")}, "q"); err == nil {
		t.Error("expected declare error")
	}

	ch := &mockChannel{}
	n, _ := newNotifier(ch, "q")
	ch.publishErr = errors.New("channel closed")
	if err := n.Send(context.Background(), secondary.Notification{Template: "FacilityReview"}); err == nil {
		t.Error("expected publish error")
	}

	if err := n.Close(); err != nil || !ch.closed {
		t.Errorf("expected channel to be closed, err = %v", err)
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Send(context.Background(), secondary.Notification{Template: "FacilityReview"}); err != nil {
		t.Errorf("LogNotifier.Send() = %v", err)
	}
}
