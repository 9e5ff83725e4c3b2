// Package events publishes outbox records to subscribers.
package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"

	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
)

// Kafka header keys set on every message.
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

var _ outbox.Publisher = (*KafkaPublisher)(nil)

// KafkaConfig configures the Kafka writer.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes outbox records to a single topic, keyed by order id
// so that events for one order stay ordered within a partition.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher creates a publisher backed by a kafka.Writer.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	timeout := cfg.WriteTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}}
}

// Publish writes records as one synchronous batch.
func (p *KafkaPublisher) Publish(ctx context.Context, records []outbox.Record) error {
	msgs := make([]kafka.Message, len(records))
	for i, r := range records {
		msgs[i] = Message(r)
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrap(err, "write messages")
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Message maps an outbox record to a Kafka message.
func Message(r outbox.Record) kafka.Message {
	return kafka.Message{
		Key:   []byte(r.Key),
		Value: r.Payload,
		Time:  r.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(r.Type)},
			{Key: HeaderEventID, Value: []byte(r.EventID)},
		},
	}
}
