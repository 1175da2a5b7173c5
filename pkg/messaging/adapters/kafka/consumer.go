package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
)

type kafkaConsumer struct {
	topic          string
	group          sarama.ConsumerGroup
	requeueBackoff time.Duration
}

// Consume joins the consumer group and runs handler for every record. A
// handler error sleeps for requeueBackoff and then ends the claim without
// marking the record, which closes the session; the loop below rejoins the
// group and resumes from the last committed offset, redelivering it —
// the Kafka analogue of a bus nack-with-requeue, slowed down the same way
// the original consumer and coordinator pause before every requeue.
func (c *kafkaConsumer) Consume(ctx context.Context, handler messaging.MessageHandler) error {
	h := &groupHandler{handler: handler, requeueBackoff: c.requeueBackoff}

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return messaging.ErrConsumeFailed(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *kafkaConsumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler        messaging.MessageHandler
	requeueBackoff time.Duration
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		m := &messaging.Message{
			ID:        string(msg.Key),
			Topic:     msg.Topic,
			Key:       msg.Key,
			Payload:   msg.Value,
			Timestamp: msg.Timestamp,
			Metadata: messaging.MessageMetadata{
				Partition: msg.Partition,
				Offset:    msg.Offset,
			},
		}

		if err := h.handler(sess.Context(), m); err != nil {
			// leave uncommitted and stop this claim, so no later record is
			// marked past it; the next session starts again from this record.
			if backoffErr := sleepBackoff(sess.Context(), h.requeueBackoff); backoffErr != nil {
				return backoffErr
			}
			return nil
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

// sleepBackoff waits out d before the next claim is processed, returning
// ctx.Err() if the session is shutting down in the meantime.
func sleepBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
