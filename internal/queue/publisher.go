package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier delivers a freshly issued passcode to its owner.
type Notifier interface {
	NotifyOTP(ctx context.Context, email, otp string) error
}

// Publisher pushes OTPRequestedEvent messages to a durable RabbitMQ queue.
// It dials per publish; registration traffic is low and a broken broker
// connection never outlives one request.
type Publisher struct {
	URL   string
	Queue string
	Log   *slog.Logger
	now   func() time.Time
}

func NewPublisher(url, queue string, log *slog.Logger) *Publisher {
	return &Publisher{URL: url, Queue: queue, Log: log, now: time.Now}
}

// NotifyOTP publishes the event as a persistent JSON message on the default
// exchange with the queue name as routing key.
func (p *Publisher) NotifyOTP(ctx context.Context, email, otp string) error {
	body, err := json.Marshal(newEvent(email, otp, p.now()))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq dial failed", "err", err)
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declareQueue(ch, p.Queue); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// LogNotifier writes the passcode to the structured log. It is meant for
// development setups without a broker.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) NotifyOTP(_ context.Context, email, otp string) error {
	n.Log.Info("otp issued", "email", email, "otp", otp)
	return nil
}

func newEvent(email, otp string, at time.Time) OTPRequestedEvent {
	return OTPRequestedEvent{
		ID:          uuid.NewString(),
		Email:       email,
		OTP:         otp,
		RequestedAt: at.UTC().Format(time.RFC3339),
	}
}

// declareQueue is idempotent. Durable so messages survive broker restarts.
func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("queue declare: %w", err)
	}
	return q, nil
}
