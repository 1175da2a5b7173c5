// Package gcs implements pkg/storage/blob.Store on Google Cloud Storage,
// as an alternate blob backend behind the same interface the S3 adapter
// satisfies.
package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"

	apperrors "github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
)

// Store implements blob.Store on top of the GCS client library.
type Store struct {
	client *storage.Client
}

// New builds a Store using application-default credentials.
func New(ctx context.Context) (blob.Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create gcs client")
	}
	return &Store{client: client}, nil
}

func (s *Store) Put(ctx context.Context, bucket, key string, data io.Reader) error {
	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return apperrors.Wrap(err, "failed to write object")
	}
	if err := w.Close(); err != nil {
		return apperrors.Wrap(err, "failed to finalize object")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, apperrors.NotFound("object not found", err)
		}
		return nil, apperrors.Wrap(err, "failed to read object")
	}
	return r, nil
}

func (s *Store) Head(ctx context.Context, bucket, key string) (*blob.ObjectInfo, error) {
	attrs, err := s.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, apperrors.NotFound("object not found", err)
		}
		return nil, apperrors.Wrap(err, "failed to stat object")
	}

	return &blob.ObjectInfo{
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated,
		ETag:         attrs.Etag,
	}, nil
}

// Delete removes bucket/key. ErrObjectNotExist is swallowed so repeated
// deletes of the same key behave identically to S3's DeleteObject.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	err := s.client.Bucket(bucket).Object(key).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return apperrors.Wrap(err, "failed to delete object")
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
