package blob

import (
	"context"
	"io"
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/events"
)

// EventedStore decorates a Store to publish a local blob.deleted event
// after a successful delete. It is an observability hook only — the
// coordinator's correctness never depends on whether a subscriber is
// listening or on delivery ordering.
type EventedStore struct {
	next Store
	bus  events.Bus
}

func NewEventedStore(next Store, bus events.Bus) *EventedStore {
	return &EventedStore{next: next, bus: bus}
}

func (s *EventedStore) Put(ctx context.Context, bucket, key string, data io.Reader) error {
	return s.next.Put(ctx, bucket, key, data)
}

func (s *EventedStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return s.next.Get(ctx, bucket, key)
}

func (s *EventedStore) Head(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	return s.next.Head(ctx, bucket, key)
}

func (s *EventedStore) Delete(ctx context.Context, bucket, key string) error {
	err := s.next.Delete(ctx, bucket, key)
	if err == nil {
		_ = s.bus.Publish(ctx, "blob.deleted", events.Event{
			ID:        bucket + "/" + key,
			Type:      "blob.deleted",
			Source:    "pkg/storage/blob",
			Timestamp: time.Now(),
			Payload: map[string]interface{}{
				"bucket": bucket,
				"key":    key,
			},
		})
	}
	return err
}

func (s *EventedStore) Close() error {
	return s.next.Close()
}
