package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/pkg/logger"
	"github.com/gronit/club-portal/pkg/telemetry"
)

// ContentPublisher announces admin writes to downstream consumers
type ContentPublisher interface {
	Publish(ctx context.Context, change domain.ContentChange) error
}

// RecordProducer is the subset of kafka.Producer used by KafkaContentPublisher
type RecordProducer interface {
	Publish(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
}

// KafkaContentPublisher publishes changes as JSON records keyed by resource id
type KafkaContentPublisher struct {
	producer RecordProducer
	topic    string
}

// NewKafkaContentPublisher creates a new KafkaContentPublisher
func NewKafkaContentPublisher(producer RecordProducer, topic string) *KafkaContentPublisher {
	return &KafkaContentPublisher{producer: producer, topic: topic}
}

// Publish implements ContentPublisher
func (p *KafkaContentPublisher) Publish(ctx context.Context, change domain.ContentChange) error {
	value, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode content change: %w", err)
	}

	headers := map[string]string{
		"content-type": "application/json",
		"event-type":   change.Type,
	}
	if traceID := telemetry.GetTraceID(ctx); traceID != "" {
		headers["trace-id"] = traceID
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok && requestID != "" {
		headers["request-id"] = requestID
	}

	return p.producer.Publish(ctx, p.topic, change.ID, value, headers)
}

// NoopContentPublisher drops every change. Used when Kafka is disabled.
type NoopContentPublisher struct{}

// Publish implements ContentPublisher
func (NoopContentPublisher) Publish(context.Context, domain.ContentChange) error {
	return nil
}

// announce records the mutation metric and publishes the change.
// Publish failures are logged; the write has already succeeded.
func announce(ctx context.Context, publisher ContentPublisher, resource, action, id, actor string, at time.Time) {
	telemetry.Metrics().ContentMutations.Inc(ctx,
		telemetry.ResourceAttr(resource),
		telemetry.ActionAttr(action),
	)
	if publisher == nil {
		return
	}
	change := domain.NewContentChange(resource, action, id, actor, at)
	if err := publisher.Publish(ctx, change); err != nil {
		logger.WarnCtx(ctx, "failed to publish content change",
			zap.String("type", change.Type),
			zap.String("id", change.ID),
			zap.Error(err),
		)
	}
}
