// Package tests provides a shared Store conformance suite that every blob
// adapter (memory, local, s3, gcs, azureblob) can embed and run.
package tests

import (
	"io"
	"strings"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/test"
)

const testBucket = "conformance-bucket"

// BlobSuite exercises the Store contract. Embedders call the embedded
// Suite's SetupTest from their own SetupTest and then set Store.
type BlobSuite struct {
	*test.Suite
	Store blob.Store
}

func (s *BlobSuite) TestPutGetRoundTrip() {
	key := "objects/round-trip.json"
	s.Require().NoError(s.Store.Put(s.Ctx, testBucket, key, strings.NewReader(`{"hello":"world"}`)))

	rc, err := s.Store.Get(s.Ctx, testBucket, key)
	s.Require().NoError(err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	s.Require().NoError(err)
	s.Equal(`{"hello":"world"}`, string(body))
}

func (s *BlobSuite) TestHeadReportsSize() {
	key := "objects/head.json"
	payload := `{"a":1}`
	s.Require().NoError(s.Store.Put(s.Ctx, testBucket, key, strings.NewReader(payload)))

	info, err := s.Store.Head(s.Ctx, testBucket, key)
	s.Require().NoError(err)
	s.Equal(int64(len(payload)), info.Size)
}

func (s *BlobSuite) TestGetMissingKeyIsNotFound() {
	_, err := s.Store.Get(s.Ctx, testBucket, "objects/does-not-exist.json")
	s.Require().Error(err)
	s.Equal(errors.CodeNotFound, errors.CodeOf(err))
}

func (s *BlobSuite) TestHeadMissingKeyIsNotFound() {
	_, err := s.Store.Head(s.Ctx, testBucket, "objects/does-not-exist.json")
	s.Require().Error(err)
	s.Equal(errors.CodeNotFound, errors.CodeOf(err))
}

func (s *BlobSuite) TestDeleteThenHeadIsNotFound() {
	key := "objects/deleteme.json"
	s.Require().NoError(s.Store.Put(s.Ctx, testBucket, key, strings.NewReader(`{}`)))
	s.Require().NoError(s.Store.Delete(s.Ctx, testBucket, key))

	_, err := s.Store.Head(s.Ctx, testBucket, key)
	s.Require().Error(err)
	s.Equal(errors.CodeNotFound, errors.CodeOf(err))
}

// TestDeleteIsIdempotent checks that deleting an already-deleted (or
// never-existing) key succeeds, matching S3's DeleteObject contract the
// coordinator's exactly-once deletion depends on.
func (s *BlobSuite) TestDeleteIsIdempotent() {
	key := "objects/already-gone.json"
	s.Require().NoError(s.Store.Delete(s.Ctx, testBucket, key))
	s.Require().NoError(s.Store.Delete(s.Ctx, testBucket, key))
}
