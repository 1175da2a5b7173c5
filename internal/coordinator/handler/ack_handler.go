package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jar7nt/exchg-s3-rmq-demo/internal/contract"
	"github.com/jar7nt/exchg-s3-rmq-demo/internal/coordinator/store"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/logger"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
)

// AckHandler records each (pointer_id, recipient_id) acknowledgement and,
// once every recipient has confirmed and the pointer is known, performs
// the single compare-and-set that claims the right to delete the blob.
type AckHandler struct {
	Store     store.Store
	BlobStore blob.Store
}

func (h *AckHandler) Handle(ctx context.Context, msg *messaging.Message) error {
	var a contract.Ack
	if err := json.Unmarshal(msg.Payload, &a); err != nil {
		logger.L().WarnContext(ctx, "dropping malformed ack message", slog.Any("error", err))
		return nil
	}

	if a.Schema != contract.SchemaAckV1 {
		logger.L().InfoContext(ctx, "dropping ack with unrecognized schema", slog.String("schema", a.Schema))
		return nil
	}

	agg, err := h.Store.RecordAck(ctx, a)
	if err != nil {
		logger.L().ErrorContext(ctx, "ack recording failed", slog.String("pointer_id", a.PointerID), slog.String("recipient_id", a.RecipientID), slog.Any("error", err))
		return err
	}

	return evaluateAndMaybeDelete(ctx, h.Store, h.BlobStore, a.PointerID, agg)
}
