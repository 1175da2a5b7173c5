package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStore wraps a Store with logging and tracing.
type InstrumentedStore struct {
	next Store
	name string
}

// NewInstrumentedStore creates a new decorator.
func NewInstrumentedStore(store Store, name string) *InstrumentedStore {
	return &InstrumentedStore{
		next: store,
		name: name,
	}
}

func (s *InstrumentedStore) Put(ctx context.Context, bucket, key string, data io.Reader) error {
	ctx, span := s.startSpan(ctx, "Put")
	defer span.End()
	span.SetAttributes(attribute.String("blob.bucket", bucket), attribute.String("blob.key", key))

	start := time.Now()
	err := s.next.Put(ctx, bucket, key, data)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().ErrorContext(ctx, "failed to put blob", "bucket", bucket, "key", key, "error", err, "duration", duration)
		return err
	}

	logger.L().InfoContext(ctx, "put blob", "bucket", bucket, "key", key, "duration", duration)
	return nil
}

func (s *InstrumentedStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer span.End()
	span.SetAttributes(attribute.String("blob.bucket", bucket), attribute.String("blob.key", key))

	logger.L().DebugContext(ctx, "getting blob", "bucket", bucket, "key", key)

	rc, err := s.next.Get(ctx, bucket, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().WarnContext(ctx, "failed to get blob", "bucket", bucket, "key", key, "error", err)
		return nil, err
	}

	return rc, nil
}

func (s *InstrumentedStore) Head(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	ctx, span := s.startSpan(ctx, "Head")
	defer span.End()
	span.SetAttributes(attribute.String("blob.bucket", bucket), attribute.String("blob.key", key))

	info, err := s.next.Head(ctx, bucket, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return info, nil
}

func (s *InstrumentedStore) Delete(ctx context.Context, bucket, key string) error {
	ctx, span := s.startSpan(ctx, "Delete")
	defer span.End()
	span.SetAttributes(attribute.String("blob.bucket", bucket), attribute.String("blob.key", key))

	logger.L().InfoContext(ctx, "deleting blob", "bucket", bucket, "key", key)

	err := s.next.Delete(ctx, bucket, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.L().ErrorContext(ctx, "failed to delete blob", "bucket", bucket, "key", key, "error", err)
		return err
	}

	logger.L().InfoContext(ctx, "deleted blob", "bucket", bucket, "key", key)
	return nil
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}

func (s *InstrumentedStore) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	tracer := otel.Tracer("pkg/storage/blob")
	return tracer.Start(ctx, fmt.Sprintf("%s.%s", s.name, op))
}
