package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	USER_INFO_UPDATED_QUEUE = "user-info-updated"
	POST_CREATED_QUEUE      = "post-created"
	COMMENT_CREATED_QUEUE   = "comment-created"
)

// Publisher sends JSON messages to a queue.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, v interface{}) error
}

type MQConn struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex
}

func New(url string) (*MQConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &MQConn{
		conn: conn,
		ch:   ch,
	}, nil
}

func (m *MQConn) declare(queue string) error {
	_, err := m.ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}

func (m *MQConn) Consume(queue string) (<-chan amqp.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.declare(queue); err != nil {
		return nil, err
	}

	return m.ch.Consume(queue, "", false, false, false, false, nil)
}

func (m *MQConn) PublishJSON(ctx context.Context, queue string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.declare(queue); err != nil {
		return err
	}

	return m.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (m *MQConn) Close() error {
	if err := m.ch.Close(); err != nil {
		return err
	}
	return m.conn.Close()
}
