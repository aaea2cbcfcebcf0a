package repository

import (
	"context"

	"FareCast/internal/domain/models"
	pkgkafka "FareCast/pkg/kafka"
)

// KafkaEventPublisher sends each batch of prediction events as one message, keyed
// by route so a route's batches land on the same partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishPredictions(ctx context.Context, events []models.PredictionEvent) error {
	if len(events) == 0 {
		return nil
	}
	return p.producer.Publish(ctx, p.topic, events[0].Key(), events)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops events. Used when the event stream is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishPredictions(context.Context, []models.PredictionEvent) error { return nil }
