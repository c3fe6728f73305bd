// Package events appends domain events to a Redis stream read by the external
// payment processor.
package events

import (
	"context"
	"fmt"
	"time"

	commonredis "rentalhub/common/redis"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types
const (
	PaymentCreated           = "payment.created"
	ApplicationSubmitted     = "application.submitted"
	ApplicationStatusChanged = "application.status_changed"
)

type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New stamps a payload with a fresh id and the current time.
func New(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// StreamPublisher XADDs {"data": <event json>, "timestamp": <unix>} to one stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, logger: logger}
}

func (p *StreamPublisher) Publish(ctx context.Context, e Event) error {
	id, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, e)
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, p.stream, err)
	}
	p.logger.Debug("event published",
		zap.String("stream", p.stream),
		zap.String("stream_id", id),
		zap.String("event_type", e.Type),
		zap.String("event_id", e.ID),
	)
	return nil
}

// NopPublisher drops events (Redis disabled).
type NopPublisher struct {
	logger *zap.Logger
}

func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) Publish(_ context.Context, e Event) error {
	if p.logger != nil {
		p.logger.Debug("event dropped (no stream configured)", zap.String("event_type", e.Type))
	}
	return nil
}
