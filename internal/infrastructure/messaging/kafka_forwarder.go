package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/config"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/event"
	"github.com/Shopify/sarama"
	"go.uber.org/zap"
)

// Header names set on every forwarded message
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// NewKafkaProducer creates a synchronous producer that waits for all in-sync replicas
func NewKafkaProducer(cfg config.KafkaConfig) (sarama.SyncProducer, error) {
	saramaConfig := sarama.NewConfig()
	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Retry.Backoff = 250 * time.Millisecond
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating sarama SyncProducer: %w", err)
	}
	return producer, nil
}

// KafkaEventForwarder publishes billing domain events to a Kafka topic, keyed by aggregate id so events of one bill stay ordered.
type KafkaEventForwarder struct {
	producer   sarama.SyncProducer
	topic      string
	serializer *event.EventSerializer
	logger     *zap.Logger
}

// NewKafkaEventForwarder creates a forwarder around an existing producer
func NewKafkaEventForwarder(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaEventForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaEventForwarder{
		producer:   producer,
		topic:      topic,
		serializer: event.NewBillingSerializer(),
		logger:     logger,
	}
}

// EventTypes subscribes the forwarder to the events of the published contract
func (f *KafkaEventForwarder) EventTypes() []string {
	return f.serializer.EventTypes()
}

// Handle sends one event
func (f *KafkaEventForwarder) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := f.serializer.Serialize(evt)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     f.topic,
		Key:       sarama.StringEncoder(evt.AggregateID().String()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: evt.OccurredAt(),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(evt.EventType())},
			{Key: []byte(HeaderEventID), Value: []byte(evt.EventID().String())},
		},
	}

	partition, offset, err := f.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to forward %s event: %w", evt.EventType(), err)
	}
	f.logger.Debug("event forwarded",
		zap.String("event_type", evt.EventType()),
		zap.String("topic", f.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close closes the underlying producer
func (f *KafkaEventForwarder) Close() error {
	return f.producer.Close()
}

var _ shared.EventHandler = (*KafkaEventForwarder)(nil)
