package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/an4xdev/SprintForge/internal/config"
	"github.com/an4xdev/SprintForge/internal/eventbus"
)

// Publisher delivers notifications to the message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, ev *eventbus.Event) error
	PublishAudit(ctx context.Context, entry *eventbus.AuditEntry) error
}

// AMQPPublisher publishes domain events to a durable queue on the default
// exchange and audit entries to a topic exchange. It connects on first use
// and reconnects after any failure.
type AMQPPublisher struct {
	url             string
	taskQueue       string
	auditExchange   string
	auditRoutingKey string
	dialTimeout     time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(env *config.RabbitMQEnv) *AMQPPublisher {
	return &AMQPPublisher{
		url:             env.URL(),
		taskQueue:       env.TaskQueue,
		auditExchange:   env.AuditExchange,
		auditRoutingKey: "audit." + strings.ToLower(env.ServiceName),
		dialTimeout:     env.DialTimeout,
	}
}

// taskMessage is the task_queue body. Consumers key on action and task_id;
// the other fields are informational.
type taskMessage struct {
	Action     string          `json:"action"`
	TaskID     string          `json:"task_id"`
	EventID    string          `json:"event_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Details    json.RawMessage `json:"details,omitempty"`
}

func taskMessageBody(ev *eventbus.Event) ([]byte, error) {
	if !ev.Kind.IsTask() {
		return nil, fmt.Errorf("event kind %s does not belong on the task queue", ev.Kind)
	}
	return json.Marshal(taskMessage{
		Action:     string(ev.Kind),
		TaskID:     ev.ResourceID,
		EventID:    ev.ID,
		OccurredAt: ev.CreatedAt,
		Details:    ev.Payload,
	})
}

func (p *AMQPPublisher) PublishEvent(ctx context.Context, ev *eventbus.Event) error {
	body, err := taskMessageBody(ev)
	if err != nil {
		return fmt.Errorf("failed to build task message: %w", err)
	}
	return p.publish(ctx, "", p.taskQueue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Kind),
		Timestamp:    ev.CreatedAt,
		Body:         body,
	})
}

func (p *AMQPPublisher) PublishAudit(ctx context.Context, entry *eventbus.AuditEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	return p.publish(ctx, p.auditExchange, p.auditRoutingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    entry.Timestamp,
		Body:         body,
	})
}

// Ping connects if needed and reports whether the broker is reachable.
func (p *AMQPPublisher) Ping(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.channelLocked()
	return err
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *AMQPPublisher) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		// drop the channel so the next attempt reconnects
		_ = p.closeLocked()
		return fmt.Errorf("failed to publish to %q/%q: %w", exchange, key, err)
	}
	return nil
}

func (p *AMQPPublisher) channelLocked() (*amqp.Channel, error) {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	_ = p.closeLocked()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.taskQueue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", p.taskQueue, err)
	}
	if err := ch.ExchangeDeclare(p.auditExchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", p.auditExchange, err)
	}

	slog.Info("connected to rabbitmq", "queue", p.taskQueue, "exchange", p.auditExchange)
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.conn != nil && !p.conn.IsClosed() {
		err = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	return err
}
