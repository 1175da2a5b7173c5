// Package handler implements the coordinator's two event-loop callbacks:
// the pointer handler, which establishes or upgrades the authoritative
// object row, and the ACK handler, which counts acknowledgements and
// drives the one-way deletion transition.
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

// PointerHandler establishes or upgrades the object row for each observed
// pointer, then re-checks the deletion gate: ACKs may have all arrived
// before the pointer ever did, and nothing else will re-evaluate that
// object once its ACK traffic has already drained.
type PointerHandler struct {
	Store     store.Store
	BlobStore blob.Store
}

// Handle satisfies messaging.MessageHandler. A nil return acknowledges the
// delivery; a non-nil return triggers a nack-with-requeue.
func (h *PointerHandler) Handle(ctx context.Context, msg *messaging.Message) error {
	var p contract.Pointer
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		logger.L().WarnContext(ctx, "dropping malformed pointer message", slog.Any("error", err))
		return nil
	}

	if p.Schema != contract.SchemaPointerV1 {
		logger.L().InfoContext(ctx, "dropping pointer with unrecognized schema", slog.String("schema", p.Schema))
		return nil
	}

	if err := h.Store.UpsertPointer(ctx, p); err != nil {
		logger.L().ErrorContext(ctx, "pointer upsert failed", slog.String("pointer_id", p.PointerID), slog.Any("error", err))
		return err
	}

	agg, err := h.Store.ReadAggregate(ctx, p.PointerID)
	if err != nil {
		// The pointer itself is durably recorded; failing to re-check the
		// deletion gate is not fatal to this delivery; a future ACK or
		// reconciliation pass will still observe the object. Log and ack.
		logger.L().ErrorContext(ctx, "post-upsert aggregate read failed", slog.String("pointer_id", p.PointerID), slog.Any("error", err))
		return nil
	}

	return evaluateAndMaybeDelete(ctx, h.Store, h.BlobStore, p.PointerID, agg)
}
