package wiring

import (
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging/adapters/kafka"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging/adapters/memory"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/messaging/adapters/rabbitmq"
)

// BusConfig names one logical channel's (pointer bus, ack bus) transport
// topology. Exactly one of RabbitMQ/Kafka/Memory is consulted, chosen by
// Driver.
type BusConfig struct {
	Driver   string `env:"MESSAGING_DRIVER" env-default:"rabbitmq" validate:"required,oneof=rabbitmq kafka memory"`
	RabbitMQ rabbitmq.Config
	Kafka    kafka.Config
	Memory   memory.Config
}

// NewBroker builds the driver-selected Broker for a single bus,
// instrumented with logging and tracing and wrapped with circuit-breaker
// and retry resilience.
func NewBroker(cfg BusConfig, resilienceCfg messaging.ResilientBrokerConfig) (messaging.Broker, error) {
	var (
		broker messaging.Broker
		err    error
	)

	// The cmd/ binaries build the adapter configs by hand, so the adapters'
	// 1s env default for RequeueBackoff is applied here when it is unset.
	switch cfg.Driver {
	case "rabbitmq":
		if cfg.RabbitMQ.RequeueBackoff <= 0 {
			cfg.RabbitMQ.RequeueBackoff = time.Second
		}
		broker, err = rabbitmq.New(cfg.RabbitMQ)
	case "kafka":
		if cfg.Kafka.RequeueBackoff <= 0 {
			cfg.Kafka.RequeueBackoff = time.Second
		}
		broker, err = kafka.New(cfg.Kafka)
	case "memory":
		broker = memory.New(cfg.Memory)
	default:
		return nil, errors.New(errors.CodeInvalidArgument, "unknown messaging driver "+cfg.Driver, nil)
	}
	if err != nil {
		return nil, err
	}

	instrumented := messaging.NewInstrumentedBroker(broker)
	return messaging.NewResilientBroker(instrumented, resilienceCfg), nil
}
