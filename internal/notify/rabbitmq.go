package notify

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mkdir-username/etlon-coffee/internal/xpkg/config"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

// Exchange carries every outbound notification; subscribers bind their
// own server-named queues to it.
const Exchange = "notifications_fanout"

// RabbitMQ wraps one connection/channel pair with the fanout exchange
// declared. Both publisher and subscriber sides go through it.
type RabbitMQ struct {
	cfg  *config.RabbitMQ
	conn *amqp.Connection
	ch   *amqp.Channel
	log  logger.Logger

	mu sync.Mutex
}

func Connect(cfg *config.RabbitMQ, log logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{cfg: cfg, log: log}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.cfg.URL())
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		Exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // args
	); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", Exchange, err)
	}

	r.conn = conn
	r.ch = ch
	return nil
}

func (r *RabbitMQ) IsAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() {
		return false
	}
	if r.ch == nil || r.ch.IsClosed() {
		return false
	}
	return true
}

// Publish sends one persistent message to the fanout exchange.
func (r *RabbitMQ) Publish(ctx context.Context, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ch.PublishWithContext(ctx,
		Exchange, // exchange
		"",       // routing key (ignored by fanout)
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}

// Consume binds a fresh server-named exclusive queue to the exchange and
// starts delivering into the returned channel.
func (r *RabbitMQ) Consume(ctx context.Context, consumer string) (<-chan amqp.Delivery, error) {
	q, err := r.ch.QueueDeclare(
		"",    // name: let the broker pick one
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := r.ch.QueueBind(q.Name, "", Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s: %w", q.Name, err)
	}

	return r.ch.ConsumeWithContext(ctx, q.Name, consumer, false, true, false, false, nil)
}

func (r *RabbitMQ) Close() error {
	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
