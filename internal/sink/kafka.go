package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

// KafkaConfig is the kafka sink config block.
type KafkaConfig struct {
	BootstrapServers string `json:"bootstrap_servers"`
	Topic            string `json:"topic"`
}

// Kafka publishes entity records to a topic, keyed by entity name, for
// downstream consumers of catalog changes.
type Kafka struct {
	config   KafkaConfig
	producer *kafka.Producer
	logger   *zap.Logger
	status   *workflow.SinkStatus
}

type KafkaOption func(*Kafka)

func KafkaWithLogger(logger *zap.Logger) KafkaOption {
	return func(s *Kafka) {
		s.logger = logger
	}
}

func NewKafka(config KafkaConfig, opts ...KafkaOption) (*Kafka, error) {
	if config.BootstrapServers == "" {
		return nil, fmt.Errorf("bootstrap_servers is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	s := &Kafka{
		config: config,
		logger: zap.NewNop(),
		status: &workflow.SinkStatus{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Kafka) Status() *workflow.SinkStatus {
	return s.status
}

func (s *Kafka) Open(ctx context.Context) error {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": s.config.BootstrapServers,
		"client.id":         "metadata-ingestion",
		"acks":              "1",
		"retries":           "3",
		"linger.ms":         "5",
	})
	if err != nil {
		return err
	}
	s.producer = producer

	go s.consumeEvents(producer.Events())

	return nil
}

// consumeEvents drains delivery reports. A record only counts as written
// once the broker acks it here; a failed delivery lands in Failures instead.
func (s *Kafka) consumeEvents(events chan kafka.Event) {
	defer s.logger.Info("producer event loop closed")

	for e := range events {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				s.logger.Error("delivery failed", zap.Error(ev.TopicPartition.Error))
				s.status.Failure(string(ev.Key), ev.TopicPartition.Error.Error())
			} else {
				s.status.RecordWritten(string(ev.Key))
				s.logger.Debug("message delivered",
					zap.String("topic", *ev.TopicPartition.Topic),
					zap.Int32("partition", ev.TopicPartition.Partition),
					zap.Int64("offset", int64(ev.TopicPartition.Offset)))
			}
		case kafka.Error:
			s.logger.Error("producer error", zap.Error(ev))
		}
	}
}

func (s *Kafka) Write(ctx context.Context, rec entity.Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &s.config.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(rec.Name()),
		Value: value,
	}, nil)
}

func (s *Kafka) Close(ctx context.Context) error {
	if s.producer == nil {
		return nil
	}
	remaining := s.producer.Flush(10_000)
	if remaining > 0 {
		s.logger.Warn("messages still queued at close", zap.Int("remaining", remaining))
	}
	s.producer.Close()
	return nil
}
