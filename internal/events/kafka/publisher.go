package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	interfaces "github.com/sheikh-saqib/double-entry-ledger/internal/interfaces"
)

// Publisher writes ledger events to Kafka. The topic travels on each message,
// so one writer serves every event type.
type Publisher struct {
	writer *kafka.Writer
	prefix string
}

// NewPublisher creates a publisher for brokers. prefix, when set, is prepended
// to every topic ("acme." + "ledger.transaction_committed").
func NewPublisher(brokers []string, prefix string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		prefix: prefix,
	}
}

func (p *Publisher) Publish(ctx context.Context, topic, key string, event any) error {
	msg, err := p.message(topic, key, event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) message(topic, key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event: %w", topic, err)
	}
	return kafka.Message{
		Topic: p.prefix + topic,
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(topic)},
		},
	}, nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
