// Package kafka implements pkg/messaging.Broker on top of Kafka via
// IBM/sarama. It exists as an alternate signalling-plane transport behind
// the same Broker interface the RabbitMQ adapter satisfies — swapping
// MESSAGING_DRIVER to "kafka" moves pointer/ack delivery onto Kafka topics
// without any change to the coordinator or consumer handlers.
package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
)

// Config configures the Kafka client.
type Config struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`

	// RequeueBackoff is slept before leaving a record uncommitted after a
	// handler error, so a record that keeps failing doesn't spin the
	// claim loop against the broker.
	RequeueBackoff time.Duration `env:"KAFKA_REQUEUE_BACKOFF" env-default:"1s"`
}

// Broker is a sarama-backed Broker implementation.
type Broker struct {
	cfg    Config
	client sarama.Client
}

// New creates a sarama client against the given brokers.
func New(cfg Config) (*Broker, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Unavailable("failed to connect to kafka", err)
	}

	return &Broker{cfg: cfg, client: client}, nil
}

func (b *Broker) Producer(topic string) (messaging.Producer, error) {
	syncProducer, err := sarama.NewSyncProducerFromClient(b.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kafka producer")
	}
	return &producer{broker: b, topic: topic, producer: syncProducer}, nil
}

func (b *Broker) Consumer(topic string, group string) (messaging.Consumer, error) {
	consumerGroup, err := sarama.NewConsumerGroupFromClient(group, b.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kafka consumer group")
	}
	return &kafkaConsumer{topic: topic, group: consumerGroup, requeueBackoff: b.cfg.RequeueBackoff}, nil
}

func (b *Broker) Close() error {
	return b.client.Close()
}

func (b *Broker) Healthy(ctx context.Context) bool {
	return !b.client.Closed()
}
