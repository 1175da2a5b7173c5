// Package local implements pkg/storage/blob.Store on the local filesystem,
// for development and for scenario tests that need a real Store without a
// network dependency. Buckets map to subdirectories of a configured root.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
)

// Store implements blob.Store on the local filesystem.
type Store struct {
	root string
}

// New creates a Store rooted at cfg.LocalDir.
func New(cfg blob.Config) (blob.Store, error) {
	if cfg.LocalDir == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "local dir is required", nil)
	}

	if err := os.MkdirAll(cfg.LocalDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create blob root directory")
	}

	absDir, err := filepath.Abs(cfg.LocalDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve absolute path for local dir")
	}

	return &Store{root: filepath.Clean(absDir)}, nil
}

func (s *Store) path(bucket, key string) (string, error) {
	fullPath := filepath.Join(s.root, bucket, key)

	prefix := s.root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}

	if !strings.HasPrefix(fullPath, prefix) {
		return "", errors.New(errors.CodeInvalidArgument, "invalid path: path traversal detected", nil)
	}

	return fullPath, nil
}

func (s *Store) Put(ctx context.Context, bucket, key string, data io.Reader) error {
	fullPath, err := s.path(bucket, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.Internal("failed to ensure blob dir", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return errors.Internal("failed to create blob file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return errors.Internal("failed to write blob data", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	fullPath, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("blob not found", err)
		}
		return nil, errors.Internal("failed to open blob file", err)
	}

	return f, nil
}

func (s *Store) Head(ctx context.Context, bucket, key string) (*blob.ObjectInfo, error) {
	fullPath, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("blob not found", err)
		}
		return nil, errors.Internal("failed to stat blob file", err)
	}

	return &blob.ObjectInfo{
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// Delete removes bucket/key. Matching the S3 DeleteObject contract the
// Store interface documents, deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	fullPath, err := s.path(bucket, key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return errors.Internal("failed to delete blob file", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
