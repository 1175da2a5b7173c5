// Package memory provides an in-process Broker used by unit and scenario
// tests. It has no delivery guarantees of its own; retries/requeue are
// simulated by re-pushing the message onto the same channel.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
)

// Config configures the in-memory broker.
type Config struct {
	// BufferSize is the channel capacity per topic.
	BufferSize int

	// RequeueBackoff is slept before a failed message is pushed back onto
	// its topic, mirroring the short pause the real bus adapters take
	// before a nack-with-requeue so a failing handler doesn't spin.
	RequeueBackoff time.Duration
}

type topic struct {
	mu   sync.Mutex
	ch   chan *messaging.Message
	size int
}

// Broker is an in-memory Broker implementation.
type Broker struct {
	cfg    Config
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// New creates a new in-memory broker.
func New(cfg Config) *Broker {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	return &Broker{cfg: cfg, topics: make(map[string]*topic)}
}

func (b *Broker) topicFor(name string) *topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[name]
	if !ok {
		t = &topic{ch: make(chan *messaging.Message, b.cfg.BufferSize)}
		b.topics[name] = t
	}
	return t
}

func (b *Broker) Producer(topicName string) (messaging.Producer, error) {
	return &producer{broker: b, topic: topicName}, nil
}

func (b *Broker) Consumer(topicName string, group string) (messaging.Consumer, error) {
	return &consumer{broker: b, topic: topicName}, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, t := range b.topics {
		close(t.ch)
	}
	return nil
}

func (b *Broker) Healthy(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

type producer struct {
	broker *Broker
	topic  string
}

func (p *producer) Publish(ctx context.Context, msg *messaging.Message) error {
	t := p.broker.topicFor(p.topic)
	select {
	case t.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *producer) PublishBatch(ctx context.Context, msgs []*messaging.Message) error {
	for _, m := range msgs {
		if err := p.Publish(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (p *producer) Close() error { return nil }

type consumer struct {
	broker *Broker
	topic  string
}

// Consume runs handler for every message published on the topic until ctx
// is cancelled. A handler error sleeps for RequeueBackoff and then
// re-enqueues the message, mimicking a bus's negative-acknowledgement/
// requeue semantics without spinning the loop on a handler that keeps
// failing.
func (c *consumer) Consume(ctx context.Context, handler messaging.MessageHandler) error {
	t := c.broker.topicFor(c.topic)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-t.ch:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil {
				if err := sleepBackoff(ctx, c.broker.cfg.RequeueBackoff); err != nil {
					return err
				}
				// requeue: push back onto the tail, best effort.
				select {
				case t.ch <- msg:
				default:
				}
			}
		}
	}
}

func (c *consumer) Close() error { return nil }

// sleepBackoff waits out d before a requeue, returning ctx.Err() if the
// consumer is shutting down in the meantime.
func sleepBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
