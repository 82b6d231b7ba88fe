package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/novelvip/novelsync/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPopTimeout = 5 * time.Second

// RedisBroker implements the queue contract over Redis lists: LPUSH to
// publish, blocking BRPOP to consume. A message popped by a worker that
// dies mid-handling is lost, which the at-least-once design already
// tolerates (the scheduler re-enqueues overdue sources).
type RedisBroker struct {
	client *redis.Client

	mu       sync.Mutex
	handlers map[string]Handler
	log      *zap.SugaredLogger
}

var _ Broker = (*RedisBroker)(nil)

func NewRedisBroker(ctx context.Context, addr string, db int) (*RedisBroker, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisBroker{
		client:   client,
		handlers: make(map[string]Handler),
		log:      zap.S().Named("redisq"),
	}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, queueName string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling message for %s: %w", queueName, err)
	}
	if err := b.client.LPush(ctx, queueName, body).Err(); err != nil {
		return err
	}
	metrics.MessagesPublished.WithLabelValues(queueName).Inc()
	return nil
}

func (b *RedisBroker) OnMessage(queueName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[queueName] = handler
}

// Run consumes every subscribed queue until ctx is canceled. A failing
// handler pushes the message back to the tail of its list.
func (b *RedisBroker) Run(ctx context.Context) error {
	b.mu.Lock()
	handlers := make(map[string]Handler, len(b.handlers))
	for name, h := range b.handlers {
		handlers[name] = h
	}
	b.mu.Unlock()

	var wg sync.WaitGroup
	for queueName, handler := range handlers {
		wg.Add(1)
		go func(queueName string, handler Handler) {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}

				res, err := b.client.BRPop(ctx, redisPopTimeout, queueName).Result()
				if err != nil {
					if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
						continue
					}
					if ctx.Err() != nil {
						return
					}
					b.log.Errorw("brpop failed", "queue", queueName, "error", err)
					time.Sleep(time.Second)
					continue
				}
				if len(res) < 2 {
					continue
				}

				body := []byte(res[1])
				if err := handler(ctx, body); err != nil {
					b.log.Errorw("handler failed", "queue", queueName, "error", err)
					if pushErr := b.client.RPush(ctx, queueName, body).Err(); pushErr != nil {
						b.log.Errorw("requeue failed, message dropped", "queue", queueName, "error", pushErr)
					}
				}
			}
		}(queueName, handler)
	}

	wg.Wait()
	return nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
