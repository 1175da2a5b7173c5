package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging/adapters/memory"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging/tests"
)

func TestMemoryBroker(t *testing.T) {
	broker := memory.New(memory.Config{BufferSize: 100})
	defer broker.Close()

	tests.RunBrokerTests(t, broker)
}

// TestMemoryBrokerRequeueBackoffSpacing asserts that a failing handler does
// not get redelivered tighter than RequeueBackoff allows, so a handler
// stuck returning errors can't spin the consumer loop.
func TestMemoryBrokerRequeueBackoffSpacing(t *testing.T) {
	const backoff = 100 * time.Millisecond

	broker := memory.New(memory.Config{BufferSize: 10, RequeueBackoff: backoff})
	defer broker.Close()

	topic := "requeue.spacing"
	producer, err := broker.Producer(topic)
	require.NoError(t, err)
	defer producer.Close()

	consumer, err := broker.Consumer(topic, "test-group")
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	deliveries := make(chan time.Time, 3)
	go consumer.Consume(ctx, func(ctx context.Context, msg *messaging.Message) error {
		deliveries <- time.Now()
		return context.DeadlineExceeded
	})

	require.NoError(t, producer.Publish(context.Background(), &messaging.Message{
		Topic:   topic,
		Payload: []byte(`{}`),
	}))

	var times []time.Time
	for i := 0; i < 3; i++ {
		select {
		case ts := <-deliveries:
			times = append(times, ts)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for redelivery")
		}
	}

	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		require.GreaterOrEqualf(t, gap, backoff/2, "redelivery %d arrived only %s after the previous one, want at least ~%s", i, gap, backoff)
	}
}
