/*
Package storage is the parent of the object-storage abstraction used by
the distribution pipeline.

Subpackages:

  - blob: Object/blob storage (S3, GCS, Azure Blob, local, memory)

Usage:

	import "github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/s3"

	store, err := s3.New(ctx, cfg)
	err = store.Put(ctx, "bucket", "key", data)
*/
package storage
