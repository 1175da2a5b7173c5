// Package s3 implements pkg/storage/blob.Store on Amazon S3 (or any
// S3-compatible endpoint) via aws-sdk-go-v2. This is the primary blob
// adapter: the producer uploads gzip JSON payloads here, branch consumers
// fetch and verify them, and the coordinator deletes them once every
// recipient has acknowledged.
package s3

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	apperrors "github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
)

// Store implements blob.Store on top of the AWS SDK v2 S3 client.
type Store struct {
	client *s3.Client
}

// New builds a Store from cfg. If cfg.Endpoint is set the client targets
// that endpoint with path-style addressing, which is how MinIO and other
// S3-compatible stores are typically reached in development.
func New(ctx context.Context, cfg blob.Config) (blob.Store, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	optFns = append(optFns, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{client: client}, nil
}

func (s *Store) Put(ctx context.Context, bucket, key string, data io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   data,
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to put object")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("object not found", err)
		}
		return nil, apperrors.Wrap(err, "failed to get object")
	}
	return out.Body, nil
}

func (s *Store) Head(ctx context.Context, bucket, key string) (*blob.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("object not found", err)
		}
		return nil, apperrors.Wrap(err, "failed to head object")
	}

	info := &blob.ObjectInfo{}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	if out.ETag != nil {
		info.ETag = *out.ETag
	}
	return info, nil
}

// Delete removes bucket/key. S3's DeleteObject already returns success for
// a missing key, which is exactly the idempotent semantics the coordinator
// needs after a crash-and-retry.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to delete object")
	}
	return nil
}

func (s *Store) Close() error { return nil }

// isNotFound recognizes the missing-object indicators named in the
// external interface contract: HTTP 404 and the NotFound/NoSuchKey error
// codes the SDK and S3-compatible stores surface.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchObject":
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}
