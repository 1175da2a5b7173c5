// Package tests provides a shared Broker conformance suite that every
// adapter (memory, rabbitmq, kafka) can run against.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
	"github.com/stretchr/testify/require"
)

// RunBrokerTests exercises the Broker/Producer/Consumer contract: publish
// then receive, and a failed handler causes redelivery.
func RunBrokerTests(t *testing.T, broker messaging.Broker) {
	t.Helper()

	t.Run("publish and consume", func(t *testing.T) {
		topic := "conformance.basic"
		producer, err := broker.Producer(topic)
		require.NoError(t, err)
		defer producer.Close()

		consumer, err := broker.Consumer(topic, "test-group")
		require.NoError(t, err)
		defer consumer.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		received := make(chan *messaging.Message, 1)
		go consumer.Consume(ctx, func(ctx context.Context, msg *messaging.Message) error {
			received <- msg
			cancel()
			return nil
		})

		require.NoError(t, producer.Publish(context.Background(), &messaging.Message{
			Topic:   topic,
			Payload: []byte(`{"hello":"world"}`),
		}))

		select {
		case msg := <-received:
			require.Equal(t, []byte(`{"hello":"world"}`), msg.Payload)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for message")
		}
	})

	t.Run("redelivers on handler error", func(t *testing.T) {
		topic := "conformance.redelivery"
		producer, err := broker.Producer(topic)
		require.NoError(t, err)
		defer producer.Close()

		consumer, err := broker.Consumer(topic, "test-group")
		require.NoError(t, err)
		defer consumer.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		attempts := make(chan int, 4)
		count := 0
		go consumer.Consume(ctx, func(ctx context.Context, msg *messaging.Message) error {
			count++
			attempts <- count
			if count < 2 {
				return context.DeadlineExceeded
			}
			cancel()
			return nil
		})

		require.NoError(t, producer.Publish(context.Background(), &messaging.Message{
			Topic:   topic,
			Payload: []byte(`{}`),
		}))

		var last int
		for i := 0; i < 2; i++ {
			select {
			case last = <-attempts:
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for redelivery")
			}
		}
		require.GreaterOrEqual(t, last, 2)
	})
}
