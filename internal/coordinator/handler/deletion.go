package handler

import (
	"context"
	"log/slog"

	"github.com/jar7nt/exchg-s3-rmq-demo/internal/coordinator/store"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/logger"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
)

// evaluateAndMaybeDelete runs the deletion gate for pointerID against agg
// and, if eligible, attempts the compare-and-set claim and the blob
// delete that follows it. It is shared by the ACK handler (the common
// path) and the pointer handler (the re-check that covers every ACK
// arriving before the pointer ever does).
func evaluateAndMaybeDelete(ctx context.Context, st store.Store, blobStore blob.Store, pointerID string, agg *store.Aggregate) error {
	if !agg.Ready() {
		return nil
	}

	bucket, key, claimed, err := st.TryClaimDeletion(ctx, pointerID)
	if err != nil {
		return err
	}
	if !claimed {
		// Another worker already won the CAS, or the row stopped being
		// eligible between the read and the attempt. Either way there is
		// nothing left for this delivery to do.
		return nil
	}

	// Deletion is performed outside the database transaction. A failure
	// here never unwinds deleted_at: the database already owns the
	// "deleted" fact, and the blob store's own idempotent delete plus a
	// lifecycle policy are the eventual reaper.
	if err := blobStore.Delete(ctx, bucket, key); err != nil {
		logger.L().ErrorContext(ctx, "blob delete failed after claiming deletion",
			slog.String("pointer_id", pointerID),
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return nil
	}

	logger.L().InfoContext(ctx, "blob deleted", slog.String("pointer_id", pointerID), slog.String("bucket", bucket), slog.String("key", key))
	return nil
}
