package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes review events to a topic, keyed by target id so that the
// events of one stall or dish stay ordered within a partition.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// NewKafkaWriter builds a synchronous writer with hash balancing on the message key.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// PublishReviewEvent encodes event as JSON and writes it.
func (p *KafkaPublisher) PublishReviewEvent(ctx context.Context, event model.ReviewEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode review event: %w", err)
	}

	key := event.TargetID
	if key == "" {
		key = event.ReviewID
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write review event: %w", err)
	}

	logger.Debug("Review event published", map[string]interface{}{
		"type":      string(event.Type),
		"review_id": event.ReviewID,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
