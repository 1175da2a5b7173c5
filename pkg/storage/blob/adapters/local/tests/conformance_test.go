package local_test

import (
	"testing"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/local"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/tests"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/test"
	"github.com/stretchr/testify/require"
)

type LocalSuite struct {
	tests.BlobSuite
}

func (s *LocalSuite) SetupTest() {
	s.Suite.SetupTest()
	store, err := local.New(blob.Config{LocalDir: s.T().TempDir()})
	require.NoError(s.T(), err)
	s.Store = store
}

func TestLocalBlobConformance(t *testing.T) {
	test.Run(t, &LocalSuite{BlobSuite: tests.BlobSuite{Suite: test.NewSuite()}})
}
