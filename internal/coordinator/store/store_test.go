package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jar7nt/exchg-s3-rmq-demo/internal/contract"
	"github.com/jar7nt/exchg-s3-rmq-demo/internal/coordinator/store"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database/sql"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database/sql/adapters/sqlite"
	pkgtest "github.com/jar7nt/exchg-s3-rmq-demo/pkg/test"
)

type StoreSuite struct {
	pkgtest.Suite
	db database.DB
	st store.Store
}

func (s *StoreSuite) SetupTest() {
	s.Suite.SetupTest()

	db, err := sqlite.New(sql.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	s.Require().NoError(err)
	s.Require().NoError(db.Get(s.Ctx).AutoMigrate(&store.Object{}, &store.Ack{}))

	s.db = db
	s.st = store.New(db)
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *StoreSuite) pointer(id string, recipients int) contract.Pointer {
	return contract.Pointer{
		Schema: contract.SchemaPointerV1, PointerID: id,
		Bucket: "bucket", Key: "key/" + id, Recipients: recipients,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *StoreSuite) ack(pointerID, recipientID string) contract.Ack {
	return contract.Ack{
		Schema: contract.SchemaAckV1, PointerID: pointerID, RecipientID: recipientID,
		Bucket: "bucket", Key: "key/" + pointerID, Status: contract.AckStatusProcessed,
		ProcessedAt: time.Now().UTC(),
	}
}

func (s *StoreSuite) TestUpsertPointerThenAllAcksReachesReady() {
	s.Require().NoError(s.st.UpsertPointer(s.Ctx, s.pointer("p1", 2)))

	agg, err := s.st.RecordAck(s.Ctx, s.ack("p1", "r1"))
	s.Require().NoError(err)
	s.False(agg.Ready())

	agg, err = s.st.RecordAck(s.Ctx, s.ack("p1", "r2"))
	s.Require().NoError(err)
	s.True(agg.Ready())
}

func (s *StoreSuite) TestAcksBeforePointerStillReachReady() {
	agg, err := s.st.RecordAck(s.Ctx, s.ack("p2", "r1"))
	s.Require().NoError(err)
	s.False(agg.Ready(), "no pointer yet")

	agg, err = s.st.RecordAck(s.Ctx, s.ack("p2", "r2"))
	s.Require().NoError(err)
	s.False(agg.Ready(), "pointer still unknown")

	s.Require().NoError(s.st.UpsertPointer(s.Ctx, s.pointer("p2", 2)))

	agg, err = s.st.ReadAggregate(s.Ctx, "p2")
	s.Require().NoError(err)
	s.True(agg.Ready())
}

func (s *StoreSuite) TestDuplicateAckIsIdempotent() {
	s.Require().NoError(s.st.UpsertPointer(s.Ctx, s.pointer("p3", 2)))

	a := s.ack("p3", "r1")
	agg, err := s.st.RecordAck(s.Ctx, a)
	s.Require().NoError(err)
	s.EqualValues(1, agg.AckCount)

	agg, err = s.st.RecordAck(s.Ctx, a)
	s.Require().NoError(err)
	s.EqualValues(1, agg.AckCount, "redelivered ack must not double-count")
}

func (s *StoreSuite) TestDuplicatePointerIsNoopOnceReal() {
	p := s.pointer("p4", 3)
	s.Require().NoError(s.st.UpsertPointer(s.Ctx, p))

	p2 := p
	p2.Recipients = 99
	s.Require().NoError(s.st.UpsertPointer(s.Ctx, p2))

	agg, err := s.st.ReadAggregate(s.Ctx, "p4")
	s.Require().NoError(err)
	s.Equal(3, agg.RecipientsTotal, "a real row must not be overwritten by a later duplicate")
}

func (s *StoreSuite) TestTryClaimDeletionIsSingleWinner() {
	s.Require().NoError(s.st.UpsertPointer(s.Ctx, s.pointer("p5", 1)))
	_, err := s.st.RecordAck(s.Ctx, s.ack("p5", "r1"))
	s.Require().NoError(err)

	bucket, key, claimed, err := s.st.TryClaimDeletion(s.Ctx, "p5")
	s.Require().NoError(err)
	s.True(claimed)
	s.Equal("bucket", bucket)
	s.Equal("key/p5", key)

	_, _, claimedAgain, err := s.st.TryClaimDeletion(s.Ctx, "p5")
	s.Require().NoError(err)
	s.False(claimedAgain, "a second claim attempt must not win")
}

func (s *StoreSuite) TestTryClaimDeletionRequiresPointerReceived() {
	_, err := s.st.RecordAck(s.Ctx, s.ack("p6", "r1"))
	s.Require().NoError(err)

	_, _, claimed, err := s.st.TryClaimDeletion(s.Ctx, "p6")
	s.Require().NoError(err)
	s.False(claimed, "deletion cannot be claimed before the pointer arrives")
}

func TestStoreSuite(t *testing.T) {
	pkgtest.Run(t, new(StoreSuite))
}
