// Package blob provides a unified object-storage abstraction shaped around
// the S3 operations the distribution pipeline relies on: GetObject,
// HeadObject, DeleteObject, each addressed by bucket and key rather than a
// single opaque name. Concrete engines live under
// pkg/storage/blob/adapters/{s3,gcs,azureblob,local,memory}.
package blob

import (
	"context"
	"io"
	"time"
)

// Config configures a Store adapter. Driver selects which adapter's New to
// call; most fields are only meaningful to a subset of drivers.
type Config struct {
	Driver string `env:"BLOB_DRIVER" env-default:"s3" validate:"required,oneof=s3 gcs azureblob local memory"`

	Bucket   string `env:"BLOB_BUCKET"`
	Region   string `env:"BLOB_REGION" env-default:"us-east-1"`
	Endpoint string `env:"BLOB_ENDPOINT"`

	AccessKeyID     string `env:"BLOB_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"BLOB_SECRET_ACCESS_KEY"`

	// AzureAccount names the storage account for the azureblob driver.
	AzureAccount string `env:"BLOB_AZURE_ACCOUNT"`

	// LocalDir is the filesystem root for the local driver. Buckets become
	// subdirectories of it.
	LocalDir string `env:"BLOB_LOCAL_DIR" env-default:"./data/blobs"`
}

// ObjectInfo is the metadata HeadObject returns without fetching the body.
type ObjectInfo struct {
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// Store is the object-storage contract the producer, branch consumers, and
// coordinator all depend on. Every method is scoped to a single bucket/key
// pair, mirroring the S3 API surface named in the external interfaces.
//
// Implementations must map missing-object conditions (HTTP 404, NoSuchKey,
// NotFound, NoSuchObject) to an *errors.AppError with Code ==
// errors.CodeNotFound so callers can branch on errors.CodeOf without
// depending on any one backend's error types.
type Store interface {
	// Put uploads data under bucket/key. Used only by the producer and by
	// test fixtures; coordinator and consumers never write blobs.
	Put(ctx context.Context, bucket, key string, data io.Reader) error

	// Get fetches the full object body. The caller must close the returned
	// reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Head reports whether an object exists and its metadata, without
	// transferring the body. Returns a NotFound AppError if absent.
	Head(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// Delete removes bucket/key. Deleting an already-absent key must be a
	// no-op success: the coordinator depends on deletion being
	// idempotent at the storage layer as well as at the database layer.
	Delete(ctx context.Context, bucket, key string) error

	Close() error
}
