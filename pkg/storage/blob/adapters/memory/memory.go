// Package memory implements pkg/storage/blob.Store in process memory, for
// unit and scenario tests that need a real Store without any network
// dependency.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
)

type object struct {
	data     []byte
	modified time.Time
}

// Store is an in-memory blob.Store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory Store.
func New(cfg blob.Config) blob.Store {
	return &Store{objects: make(map[string]object)}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

func (s *Store) Put(ctx context.Context, bucket, key string, data io.Reader) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return errors.Internal("failed to buffer blob data", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey(bucket, key)] = object{data: body, modified: time.Now()}
	return nil
}

func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[objectKey(bucket, key)]
	if !ok {
		return nil, errors.NotFound("blob not found", nil)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) Head(ctx context.Context, bucket, key string) (*blob.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[objectKey(bucket, key)]
	if !ok {
		return nil, errors.NotFound("blob not found", nil)
	}
	return &blob.ObjectInfo{Size: int64(len(obj.data)), LastModified: obj.modified}, nil
}

// Delete removes bucket/key. Deleting an absent key is a no-op, matching
// S3's DeleteObject semantics.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey(bucket, key))
	return nil
}

func (s *Store) Close() error { return nil }
