package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

// Deliverer pushes a decoded notification to its final destination,
// typically a Telegram chat.
type Deliverer interface {
	DeliverUser(ctx context.Context, userID int64, text string) error
	DeliverStaff(ctx context.Context, text string) error
}

// Subscriber consumes the notifications exchange and hands each message
// to the deliverer. One subscriber per process; the exchange fans out to
// every running instance.
type Subscriber struct {
	broker    *RabbitMQ
	deliverer Deliverer
	log       logger.Logger

	wg sync.WaitGroup
}

func NewSubscriber(broker *RabbitMQ, deliverer Deliverer, log logger.Logger) *Subscriber {
	return &Subscriber{broker: broker, deliverer: deliverer, log: log}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (s *Subscriber) Run(ctx context.Context) error {
	deliveries, err := s.broker.Consume(ctx, "notification-subscriber")
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	s.log.Action("consuming_started").Info("subscribed to notifications exchange", "exchange", Exchange)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			s.wg.Add(1)
			go func(msg amqp.Delivery) {
				defer s.wg.Done()
				s.handle(ctx, msg)
			}(msg)
		}
	}
}

// Stop waits for in-flight deliveries and closes the broker.
func (s *Subscriber) Stop() error {
	s.wg.Wait()
	return s.broker.Close()
}

func (s *Subscriber) handle(ctx context.Context, delivery amqp.Delivery) {
	msg, err := decode(delivery.Body)
	if err != nil {
		s.log.Action("message_parsing_failed").Error("failed to parse notification", err)
		delivery.Nack(false, false) // malformed, don't requeue
		return
	}

	log := s.log.Action("notification_received").RequestID(msg.ID).With("kind", msg.Kind)

	if err := s.deliver(ctx, msg); err != nil {
		log.Error("failed to deliver notification", err)
		delivery.Nack(false, false)
		return
	}

	log.Debug("notification delivered")
	delivery.Ack(false)
}

func (s *Subscriber) deliver(ctx context.Context, msg Message) error {
	switch msg.Kind {
	case KindUser:
		return s.deliverer.DeliverUser(ctx, msg.UserID, msg.Text)
	case KindStaff:
		return s.deliverer.DeliverStaff(ctx, msg.Text)
	default:
		return fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
}

func decode(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, err
	}
	if msg.Kind == "" {
		return Message{}, fmt.Errorf("notification without kind")
	}
	return msg, nil
}
