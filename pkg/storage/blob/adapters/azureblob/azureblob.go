// Package azureblob implements pkg/storage/blob.Store on Azure Blob
// Storage, as an alternate to the primary S3 adapter behind the same
// interface.
package azureblob

import (
	"bytes"
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
)

// Store implements blob.Store on top of an Azure Blob Storage account.
// Containers play the role of S3 buckets.
type Store struct {
	client *azblob.Client
}

// New builds a Store authenticated against cfg.AzureAccount using default
// Azure credentials (managed identity, environment, or CLI login).
func New(cfg blob.Config) (blob.Store, error) {
	if cfg.AzureAccount == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "azure account is required", nil)
	}

	url := "https://" + cfg.AzureAccount + ".blob.core.windows.net/"

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire azure credentials")
	}

	client, err := azblob.NewClient(url, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create azure blob client")
	}

	return &Store{client: client}, nil
}

func (s *Store) Put(ctx context.Context, bucket, key string, data io.Reader) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return errors.Internal("failed to buffer blob data", err)
	}
	if _, err := s.client.UploadBuffer(ctx, bucket, key, body, nil); err != nil {
		return errors.Wrap(err, "failed to upload blob")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, bucket, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, errors.NotFound("blob not found", err)
		}
		return nil, errors.Wrap(err, "failed to download blob")
	}
	return io.NopCloser(bytes.NewReader(mustRead(resp.Body))), nil
}

func mustRead(r io.ReadCloser) []byte {
	defer r.Close()
	data, _ := io.ReadAll(r)
	return data
}

func (s *Store) Head(ctx context.Context, bucket, key string) (*blob.ObjectInfo, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(bucket).NewBlobClient(key)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, errors.NotFound("blob not found", err)
		}
		return nil, errors.Wrap(err, "failed to head blob")
	}

	info := &blob.ObjectInfo{}
	if props.ContentLength != nil {
		info.Size = *props.ContentLength
	}
	if props.ContentType != nil {
		info.ContentType = *props.ContentType
	}
	if props.LastModified != nil {
		info.LastModified = *props.LastModified
	}
	if props.ETag != nil {
		info.ETag = string(*props.ETag)
	}
	return info, nil
}

// Delete removes bucket/key. A BlobNotFound response is treated as success
// to match the idempotent-delete contract the coordinator relies on.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteBlob(ctx, bucket, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return errors.Wrap(err, "failed to delete blob")
	}
	return nil
}

func (s *Store) Close() error { return nil }
