// Package memory implements events.Bus as an in-process, synchronous
// publish/subscribe table. It exists for the common case described in
// pkg/events's own doc comment: local fan-out with no distributed
// delivery guarantees.
package memory

import (
	"context"
	"sync"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/events"
)

// Bus is a mutex-guarded map of topic to subscriber handlers.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]events.Handler
	closed bool
}

// New creates an empty in-process bus.
func New() *Bus {
	return &Bus{topics: make(map[string][]events.Handler)}
}

// Publish invokes every handler subscribed to topic, in subscription
// order, on the calling goroutine. The first handler error aborts the
// remaining invocations and is returned to the caller.
func (b *Bus) Publish(ctx context.Context, topic string, event events.Event) error {
	b.mu.RLock()
	handlers := append([]events.Handler(nil), b.topics[topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers handler to run on every future Publish to topic.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler events.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = append(b.topics[topic], handler)
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.topics = nil
	return nil
}
