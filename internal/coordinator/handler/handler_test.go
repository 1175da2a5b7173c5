package handler_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/internal/contract"
	"github.com/jar7nt/exchg-s3-rmq-demo/internal/coordinator/handler"
	"github.com/jar7nt/exchg-s3-rmq-demo/internal/coordinator/store"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database/sql"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database/sql/adapters/sqlite"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/memory"
	pkgtest "github.com/jar7nt/exchg-s3-rmq-demo/pkg/test"
)

type HandlerSuite struct {
	pkgtest.Suite
	db        database.DB
	st        store.Store
	blobStore blob.Store
	pointers  *handler.PointerHandler
	acks      *handler.AckHandler
}

func (s *HandlerSuite) SetupTest() {
	s.Suite.SetupTest()

	db, err := sqlite.New(sql.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	s.Require().NoError(err)
	s.Require().NoError(db.Get(s.Ctx).AutoMigrate(&store.Object{}, &store.Ack{}))

	s.db = db
	s.st = store.New(db)
	s.blobStore = memory.New(blob.Config{})
	s.pointers = &handler.PointerHandler{Store: s.st, BlobStore: s.blobStore}
	s.acks = &handler.AckHandler{Store: s.st, BlobStore: s.blobStore}
}

func (s *HandlerSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *HandlerSuite) putPointer(id, bucket, key string, recipients int) *messaging.Message {
	body, err := json.Marshal(contract.Pointer{
		Schema: contract.SchemaPointerV1, PointerID: id, Bucket: bucket, Key: key,
		Recipients: recipients, CreatedAt: time.Now().UTC(),
	})
	s.Require().NoError(err)
	return &messaging.Message{Payload: body}
}

func (s *HandlerSuite) putAck(pointerID, bucket, key, recipientID string) *messaging.Message {
	body, err := json.Marshal(contract.Ack{
		Schema: contract.SchemaAckV1, PointerID: pointerID, Bucket: bucket, Key: key,
		RecipientID: recipientID, Status: contract.AckStatusProcessed, ProcessedAt: time.Now().UTC(),
	})
	s.Require().NoError(err)
	return &messaging.Message{Payload: body}
}

func (s *HandlerSuite) TestHappyPathDeletesOnceAllAcksArrive() {
	bucket, key := "bucket-a", "objects/1.json.gz"
	s.Require().NoError(s.blobStore.Put(s.Ctx, bucket, key, strings.NewReader("payload")))

	s.Require().NoError(s.pointers.Handle(s.Ctx, s.putPointer("p1", bucket, key, 2)))
	s.Require().NoError(s.acks.Handle(s.Ctx, s.putAck("p1", bucket, key, "r1")))

	_, err := s.blobStore.Head(s.Ctx, bucket, key)
	s.Require().NoError(err, "object must still exist after a partial ack count")

	s.Require().NoError(s.acks.Handle(s.Ctx, s.putAck("p1", bucket, key, "r2")))

	_, err = s.blobStore.Head(s.Ctx, bucket, key)
	s.Require().Error(err)
	s.Equal(errors.CodeNotFound, errors.CodeOf(err))
}

func (s *HandlerSuite) TestAcksBeforePointerStillTriggersDeletionOnPointerArrival() {
	bucket, key := "bucket-b", "objects/2.json.gz"
	s.Require().NoError(s.blobStore.Put(s.Ctx, bucket, key, strings.NewReader("payload")))

	s.Require().NoError(s.acks.Handle(s.Ctx, s.putAck("p2", bucket, key, "r1")))
	s.Require().NoError(s.acks.Handle(s.Ctx, s.putAck("p2", bucket, key, "r2")))

	_, err := s.blobStore.Head(s.Ctx, bucket, key)
	s.Require().NoError(err, "deletion gate cannot open before the pointer names the object")

	s.Require().NoError(s.pointers.Handle(s.Ctx, s.putPointer("p2", bucket, key, 2)))

	_, err = s.blobStore.Head(s.Ctx, bucket, key)
	s.Require().Error(err)
	s.Equal(errors.CodeNotFound, errors.CodeOf(err))
}

func (s *HandlerSuite) TestDuplicateAckRedeliveryDoesNotDeleteEarly() {
	bucket, key := "bucket-c", "objects/3.json.gz"
	s.Require().NoError(s.blobStore.Put(s.Ctx, bucket, key, strings.NewReader("payload")))

	s.Require().NoError(s.pointers.Handle(s.Ctx, s.putPointer("p3", bucket, key, 2)))
	s.Require().NoError(s.acks.Handle(s.Ctx, s.putAck("p3", bucket, key, "r1")))
	s.Require().NoError(s.acks.Handle(s.Ctx, s.putAck("p3", bucket, key, "r1")))

	_, err := s.blobStore.Head(s.Ctx, bucket, key)
	s.Require().NoError(err, "a redelivered duplicate ack must not count as a second recipient")
}

func (s *HandlerSuite) TestMalformedMessageIsDroppedNotRequeued() {
	err := s.pointers.Handle(s.Ctx, &messaging.Message{Payload: []byte("not json")})
	s.Require().NoError(err)

	err = s.acks.Handle(s.Ctx, &messaging.Message{Payload: []byte("not json")})
	s.Require().NoError(err)
}

func (s *HandlerSuite) TestBlobDeleteFailureStillAcksDelivery() {
	bucket, key := "bucket-d", "objects/4.json.gz"
	s.Require().NoError(s.blobStore.Put(s.Ctx, bucket, key, strings.NewReader("payload")))

	failing := &alwaysFailingDelete{Store: s.blobStore}
	h := &handler.AckHandler{Store: s.st, BlobStore: failing}

	s.Require().NoError(s.pointers.Handle(s.Ctx, s.putPointer("p4", bucket, key, 1)))
	err := h.Handle(s.Ctx, s.putAck("p4", bucket, key, "r1"))
	s.Require().NoError(err, "a blob delete failure must not fail the ack delivery")

	claimedBucket, claimedKey, claimed, err := s.st.TryClaimDeletion(s.Ctx, "p4")
	s.Require().NoError(err)
	s.False(claimed, "the CAS must already be claimed regardless of the delete outcome")
	s.Empty(claimedBucket)
	s.Empty(claimedKey)
}

// alwaysFailingDelete wraps a Store to make Delete fail unconditionally,
// simulating a blob backend outage after the deletion claim is won.
type alwaysFailingDelete struct {
	blob.Store
}

func (a *alwaysFailingDelete) Delete(ctx context.Context, bucket, key string) error {
	return errors.Internal("simulated blob backend outage", nil)
}

func TestHandlerSuite(t *testing.T) {
	pkgtest.Run(t, new(HandlerSuite))
}
