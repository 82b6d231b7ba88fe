package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/novelvip/novelsync/pkg/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitBroker talks to RabbitMQ through a single connection. Queues are
// declared durable on first use by either side, so producer and consumer
// start order does not matter.
type RabbitBroker struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	mu       sync.Mutex
	declared map[string]bool
	handlers map[string]Handler
	log      *zap.SugaredLogger
}

var _ Broker = (*RabbitBroker)(nil)

func NewRabbitBroker(url string) (*RabbitBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("setting qos: %w", err)
	}

	return &RabbitBroker{
		conn:     conn,
		channel:  ch,
		declared: make(map[string]bool),
		handlers: make(map[string]Handler),
		log:      zap.S().Named("rabbitmq"),
	}, nil
}

func (b *RabbitBroker) declare(queueName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.declared[queueName] {
		return nil
	}
	if _, err := b.channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring queue %s: %w", queueName, err)
	}
	b.declared[queueName] = true
	return nil
}

func (b *RabbitBroker) Publish(ctx context.Context, queueName string, message interface{}) error {
	if err := b.declare(queueName); err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling message for %s: %w", queueName, err)
	}

	err = b.channel.PublishWithContext(ctx,
		"",        // default exchange routes by queue name
		queueName, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return err
	}
	metrics.MessagesPublished.WithLabelValues(queueName).Inc()
	return nil
}

func (b *RabbitBroker) OnMessage(queueName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[queueName] = handler
}

// Run consumes every subscribed queue until ctx is canceled. A handler
// error nacks the delivery with requeue; a payload the handler cannot even
// parse should be swallowed by the handler to avoid a redelivery loop.
func (b *RabbitBroker) Run(ctx context.Context) error {
	b.mu.Lock()
	handlers := make(map[string]Handler, len(b.handlers))
	for name, h := range b.handlers {
		handlers[name] = h
	}
	b.mu.Unlock()

	var wg sync.WaitGroup
	for queueName, handler := range handlers {
		if err := b.declare(queueName); err != nil {
			return err
		}

		deliveries, err := b.channel.Consume(queueName, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consuming queue %s: %w", queueName, err)
		}

		wg.Add(1)
		go func(queueName string, handler Handler, deliveries <-chan amqp.Delivery) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-deliveries:
					if !ok {
						b.log.Warnf("delivery channel for %s closed", queueName)
						return
					}
					if err := handler(ctx, msg.Body); err != nil {
						b.log.Errorw("handler failed", "queue", queueName, "error", err)
						_ = msg.Nack(false, true)
						continue
					}
					_ = msg.Ack(false)
				}
			}
		}(queueName, handler, deliveries)
	}

	wg.Wait()
	return nil
}

func (b *RabbitBroker) Close() error {
	if err := b.channel.Close(); err != nil {
		b.log.Warnf("closing channel: %v", err)
	}
	return b.conn.Close()
}
