package handler_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jar7nt/exchg-s3-rmq-demo/internal/consumer/handler"
	"github.com/jar7nt/exchg-s3-rmq-demo/internal/contract"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/memory"
)

type fakeProducer struct {
	published []*messaging.Message
}

func (p *fakeProducer) Publish(ctx context.Context, msg *messaging.Message) error {
	p.published = append(p.published, msg)
	return nil
}

func (p *fakeProducer) PublishBatch(ctx context.Context, msgs []*messaging.Message) error {
	for _, m := range msgs {
		if err := p.Publish(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func pointerMessage(t *testing.T, p contract.Pointer) *messaging.Message {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	return &messaging.Message{Payload: body}
}

func TestHandleFetchesVerifiesAndAcks(t *testing.T) {
	store := memory.New(blob.Config{})
	ctx := context.Background()

	body := "hello world"
	require.NoError(t, store.Put(ctx, "bucket", "key1", strings.NewReader(body)))

	sum := sha256Sum(body)

	producer := &fakeProducer{}
	h := &handler.Handler{RecipientID: "branch1", AckTopic: "ack", BlobStore: store, AckProducer: producer}

	p := contract.Pointer{Schema: contract.SchemaPointerV1, PointerID: "p1", Bucket: "bucket", Key: "key1", SHA256: sum, Recipients: 1}
	require.NoError(t, h.Handle(ctx, pointerMessage(t, p)))

	require.Len(t, producer.published, 1)
	var ack contract.Ack
	require.NoError(t, json.Unmarshal(producer.published[0].Payload, &ack))
	require.Equal(t, "p1", ack.PointerID)
	require.Equal(t, "branch1", ack.RecipientID)
	require.Equal(t, contract.AckStatusProcessed, ack.Status)
}

func TestHandleSkipsVerificationWhenDigestAbsent(t *testing.T) {
	store := memory.New(blob.Config{})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "bucket", "key2", strings.NewReader("payload")))

	producer := &fakeProducer{}
	h := &handler.Handler{RecipientID: "branch1", AckTopic: "ack", BlobStore: store, AckProducer: producer}

	p := contract.Pointer{Schema: contract.SchemaPointerV1, PointerID: "p2", Bucket: "bucket", Key: "key2"}
	require.NoError(t, h.Handle(ctx, pointerMessage(t, p)))
	require.Len(t, producer.published, 1)
}

func TestHandleShaMismatchReturnsErrorForRequeue(t *testing.T) {
	store := memory.New(blob.Config{})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "bucket", "key3", strings.NewReader("payload")))

	producer := &fakeProducer{}
	h := &handler.Handler{RecipientID: "branch1", AckTopic: "ack", BlobStore: store, AckProducer: producer}

	p := contract.Pointer{Schema: contract.SchemaPointerV1, PointerID: "p3", Bucket: "bucket", Key: "key3", SHA256: "deadbeef"}
	err := h.Handle(ctx, pointerMessage(t, p))
	require.Error(t, err)
	require.Empty(t, producer.published, "a poison message must never produce an ack")
}

func TestHandleMissingObjectAcksWithoutEmitting(t *testing.T) {
	store := memory.New(blob.Config{})
	ctx := context.Background()

	producer := &fakeProducer{}
	h := &handler.Handler{RecipientID: "branch1", AckTopic: "ack", BlobStore: store, AckProducer: producer}

	p := contract.Pointer{Schema: contract.SchemaPointerV1, PointerID: "p4", Bucket: "bucket", Key: "missing"}
	err := h.Handle(ctx, pointerMessage(t, p))
	require.NoError(t, err, "an object that is already gone must not block the pipeline")
	require.Empty(t, producer.published)
}

func TestHandleTransientFetchErrorRequeues(t *testing.T) {
	store := &failingGetStore{err: errors.Unavailable("storage backend unreachable", nil)}
	producer := &fakeProducer{}
	h := &handler.Handler{RecipientID: "branch1", AckTopic: "ack", BlobStore: store, AckProducer: producer}

	p := contract.Pointer{Schema: contract.SchemaPointerV1, PointerID: "p5", Bucket: "bucket", Key: "key"}
	err := h.Handle(context.Background(), pointerMessage(t, p))
	require.Error(t, err)
	require.Empty(t, producer.published)
}

func TestHandleMalformedMessageIsDropped(t *testing.T) {
	store := memory.New(blob.Config{})
	producer := &fakeProducer{}
	h := &handler.Handler{RecipientID: "branch1", AckTopic: "ack", BlobStore: store, AckProducer: producer}

	err := h.Handle(context.Background(), &messaging.Message{Payload: []byte("not json")})
	require.NoError(t, err)
	require.Empty(t, producer.published)
}

type failingGetStore struct {
	blob.Store
	err error
}

func (f *failingGetStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return nil, f.err
}

func sha256Sum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
