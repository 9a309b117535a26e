// Package telemetry publishes engine events to Kafka.
package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	EventMoveSearched  = "move_searched"
	EventSessionClosed = "session_closed"
)

type Publisher interface {
	Publish(ctx context.Context, event string, payload map[string]any)
}

type Producer struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewProducer returns nil when brokers or topic are missing; a nil Producer
// drops every event.
func NewProducer(brokers []string, topic string, logger zerolog.Logger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
	}
	return &Producer{writer: writer, log: logger}
}

type envelope struct {
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

func encode(event string, payload map[string]any, now time.Time) ([]byte, error) {
	return json.Marshal(envelope{Event: event, Payload: payload, Timestamp: now.UTC()})
}

// Publish keys messages by session so one session's events stay ordered.
func (p *Producer) Publish(ctx context.Context, event string, payload map[string]any) {
	if p == nil || p.writer == nil {
		return
	}
	data, err := encode(event, payload, time.Now())
	if err != nil {
		p.log.Warn().Err(err).Str("event", event).Msg("kafka encode failed")
		return
	}
	msg := kafka.Message{Value: data}
	if session, ok := payload["session"].(string); ok {
		msg.Key = []byte(session)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn().Err(err).Str("event", event).Msg("kafka publish failed")
	}
}

func (p *Producer) Close() {
	if p == nil || p.writer == nil {
		return
	}
	_ = p.writer.Close()
}
