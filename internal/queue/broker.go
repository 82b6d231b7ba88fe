// Package queue is the provider-agnostic contract over named queues.
// Exactly one broker backend is active per deployment, selected by
// configuration; producers and consumers address each other through the
// shared queue names below, so business code never branches on the
// backend. Delivery is at-least-once: handlers must be safe to re-run.
package queue

import (
	"context"
	"fmt"

	"github.com/novelvip/novelsync/internal/config"
)

// Queue names shared by both broker backends.
const (
	SourceImport      = "novel-source.import"
	ChapterAudio      = "chapter.audio"
	EpubUpload        = "epub.upload"
	EmailVerification = "email.verification"
)

// Handler processes one raw message body. Returning an error requeues the
// message on backends that support it; handlers that must not be retried
// have to swallow their own failures.
type Handler func(ctx context.Context, body []byte) error

type Publisher interface {
	Publish(ctx context.Context, queueName string, message interface{}) error
	Close() error
}

// Listener delivers each message of a subscribed queue to exactly one
// registered handler. OnMessage must be called before Run.
type Listener interface {
	OnMessage(queueName string, handler Handler)
	Run(ctx context.Context) error
	Close() error
}

// Broker is the capability pair one backend adapter provides.
type Broker interface {
	Publisher
	Listener
}

// New selects the active backend from configuration. The two adapters are
// mutually exclusive; there is no runtime switch between them.
func New(ctx context.Context, cfg *config.Config) (Broker, error) {
	switch cfg.Messaging.Provider {
	case "rabbitmq":
		return NewRabbitBroker(cfg.Messaging.AmqpUrl)
	case "redis":
		return NewRedisBroker(ctx, cfg.Messaging.RedisUrl, cfg.Messaging.RedisDB)
	default:
		return nil, fmt.Errorf("unknown messaging provider %q", cfg.Messaging.Provider)
	}
}
