package blob

import (
	"context"
	"io"
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/resilience"
)

// ResilientStoreConfig configures the resilience wrapper applied to a
// Store: a circuit breaker shared across operations, plus retry with
// backoff for the read-side operations (Get, Head, Delete) whose failure
// doesn't consume input that can't be replayed.
type ResilientStoreConfig struct {
	CircuitBreakerEnabled   bool          `env:"BLOB_CB_ENABLED" env-default:"true"`
	CircuitBreakerThreshold int64         `env:"BLOB_CB_THRESHOLD" env-default:"5"`
	CircuitBreakerTimeout   time.Duration `env:"BLOB_CB_TIMEOUT" env-default:"30s"`

	RetryEnabled     bool          `env:"BLOB_RETRY_ENABLED" env-default:"true"`
	RetryMaxAttempts int           `env:"BLOB_RETRY_MAX" env-default:"3"`
	RetryBackoff     time.Duration `env:"BLOB_RETRY_BACKOFF" env-default:"100ms"`
}

// ResilientStore wraps a Store with circuit breaker and retry support, the
// blob-storage analogue of messaging.ResilientBroker. Only a transient
// failure is retried; a CodeNotFound or CodeInvalidArgument result is the
// operation's real answer, not a fault to retry past — retrying past a
// missing object would turn "object already gone" into a slow failure
// instead of the fast no-op the consumer handler depends on.
type ResilientStore struct {
	next     Store
	cb       *resilience.CircuitBreaker
	retryCfg resilience.RetryConfig
}

// NewResilientStore wraps next with resilience features configured by cfg.
func NewResilientStore(next Store, cfg ResilientStoreConfig) *ResilientStore {
	rs := &ResilientStore{next: next}

	if cfg.CircuitBreakerEnabled {
		rs.cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "blob",
			FailureThreshold: cfg.CircuitBreakerThreshold,
			SuccessThreshold: 2,
			Timeout:          cfg.CircuitBreakerTimeout,
		})
	}

	if cfg.RetryEnabled {
		rs.retryCfg = resilience.RetryConfig{
			MaxAttempts:    cfg.RetryMaxAttempts,
			InitialBackoff: cfg.RetryBackoff,
			MaxBackoff:     5 * time.Second,
			Multiplier:     2.0,
			RetryIf:        isTransient,
		}
	}

	return rs
}

func isTransient(err error) bool {
	switch errors.CodeOf(err) {
	case errors.CodeNotFound, errors.CodeInvalidArgument:
		return false
	default:
		return err != nil
	}
}

func (s *ResilientStore) execute(ctx context.Context, fn resilience.Executor) error {
	operation := fn

	if s.cb != nil {
		cbFn := operation
		operation = func(ctx context.Context) error {
			// A non-transient result is the operation's answer, so it does
			// not count as a failure against the breaker.
			var opErr error
			if err := s.cb.Execute(ctx, func(ctx context.Context) error {
				opErr = cbFn(ctx)
				if isTransient(opErr) {
					return opErr
				}
				return nil
			}); err != nil {
				return err
			}
			return opErr
		}
	}

	if s.retryCfg.MaxAttempts > 0 {
		return resilience.Retry(ctx, s.retryCfg, operation)
	}

	return operation(ctx)
}

// Put is passed straight through: data is an io.Reader that a retry can't
// safely replay once partially consumed.
func (s *ResilientStore) Put(ctx context.Context, bucket, key string, data io.Reader) error {
	return s.next.Put(ctx, bucket, key, data)
}

func (s *ResilientStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := s.execute(ctx, func(ctx context.Context) error {
		var err error
		rc, err = s.next.Get(ctx, bucket, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (s *ResilientStore) Head(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	var info *ObjectInfo
	err := s.execute(ctx, func(ctx context.Context) error {
		var err error
		info, err = s.next.Head(ctx, bucket, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *ResilientStore) Delete(ctx context.Context, bucket, key string) error {
	return s.execute(ctx, func(ctx context.Context) error {
		return s.next.Delete(ctx, bucket, key)
	})
}

func (s *ResilientStore) Close() error {
	return s.next.Close()
}
