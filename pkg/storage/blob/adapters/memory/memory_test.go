package memory_test

import (
	"testing"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/memory"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/tests"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/test"
)

type MemorySuite struct {
	tests.BlobSuite
}

func (s *MemorySuite) SetupTest() {
	s.Suite.SetupTest()
	s.Store = memory.New(blob.Config{})
}

func TestMemoryBlob(t *testing.T) {
	test.Run(t, &MemorySuite{BlobSuite: tests.BlobSuite{Suite: test.NewSuite()}})
}
