package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// TopicOutboxSends is the queue the transport worker consumes.
const TopicOutboxSends = "outbox_sends"

// Publisher notifies the transport worker that outbox entries are waiting.
// Delivery here is best-effort: the outbox row is the durable source of truth,
// the notification only wakes the worker up sooner.
type Publisher interface {
	Publish(topic string, payload any) error
}

// OutboxNotification is the payload published when an entry is enqueued.
type OutboxNotification struct {
	OutboxEntryID string `json:"outbox_entry_id"`
}

// AMQPPublisher publishes notifications to a durable RabbitMQ queue per topic.
type AMQPPublisher struct {
	ch *amqp.Channel

	mu       sync.Mutex
	declared map[string]bool
}

func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	return &AMQPPublisher{ch: ch, declared: make(map[string]bool)}, nil
}

func (p *AMQPPublisher) Publish(topic string, payload any) error {
	if err := p.declare(topic); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",    // exchange
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) declare(topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.declared[topic] {
		return nil
	}
	_, err := p.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}
	p.declared[topic] = true
	return nil
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

// InMemoryQueue is a process-local Publisher with subscriptions, used in tests
// and single-binary development runs.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(payload); err != nil {
			return err
		}
	}
	return nil
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
}

var _ Publisher = (*AMQPPublisher)(nil)
var _ Publisher = (*InMemoryQueue)(nil)
