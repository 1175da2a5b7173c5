// Package handler implements the branch consumer's pointer-processing
// protocol: fetch the referenced blob, optionally verify its digest, and
// emit a durable ACK before acknowledging the pointer delivery.
package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jar7nt/exchg-s3-rmq-demo/internal/contract"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/logger"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
)

// Handler processes one pointer message per Handle call. It holds no
// per-message state, so redelivery of the same pointer is safe: it
// produces a fresh fetch and a duplicate ACK that the coordinator's
// unique constraint absorbs.
type Handler struct {
	RecipientID string
	AckTopic    string
	BlobStore   blob.Store
	AckProducer messaging.Producer
}

// Handle satisfies messaging.MessageHandler.
func (h *Handler) Handle(ctx context.Context, msg *messaging.Message) error {
	var p contract.Pointer
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		logger.L().WarnContext(ctx, "dropping malformed pointer message", slog.Any("error", err))
		return nil
	}

	if p.Schema != contract.SchemaPointerV1 {
		logger.L().InfoContext(ctx, "dropping pointer with unrecognized schema", slog.String("schema", p.Schema))
		return nil
	}

	body, err := h.fetch(ctx, p)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeNotFound {
			logger.L().InfoContext(ctx, "object already gone, acking without emitting ack",
				slog.String("pointer_id", p.PointerID), slog.String("bucket", p.Bucket), slog.String("key", p.Key))
			return nil
		}
		logger.L().WarnContext(ctx, "transient blob fetch failure, will retry",
			slog.String("pointer_id", p.PointerID), slog.Any("error", err))
		return err
	}

	if p.SHA256 != "" {
		sum := sha256.Sum256(body)
		if !strings.EqualFold(hex.EncodeToString(sum[:]), p.SHA256) {
			logger.L().ErrorContext(ctx, "sha256 mismatch, treating as poison message",
				slog.String("pointer_id", p.PointerID), slog.String("bucket", p.Bucket), slog.String("key", p.Key))
			return errors.New(errors.CodeInvalidArgument, "sha256 mismatch", nil)
		}
	}

	if err := h.emitAck(ctx, p); err != nil {
		logger.L().WarnContext(ctx, "ack publish failed, will retry",
			slog.String("pointer_id", p.PointerID), slog.Any("error", err))
		return err
	}

	return nil
}

func (h *Handler) fetch(ctx context.Context, p contract.Pointer) ([]byte, error) {
	rc, err := h.BlobStore.Get(ctx, p.Bucket, p.Key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read object body")
	}
	return body, nil
}

func (h *Handler) emitAck(ctx context.Context, p contract.Pointer) error {
	ack := contract.Ack{
		Schema:      contract.SchemaAckV1,
		PointerID:   p.PointerID,
		Bucket:      p.Bucket,
		Key:         p.Key,
		RecipientID: h.RecipientID,
		Status:      contract.AckStatusProcessed,
		ProcessedAt: time.Now().UTC(),
		Recipients:  p.Recipients,
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		return errors.Wrap(err, "failed to marshal ack")
	}

	return h.AckProducer.Publish(ctx, &messaging.Message{
		ID:      uuid.New().String(),
		Topic:   h.AckTopic,
		Payload: payload,
	})
}
