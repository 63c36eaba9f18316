package repository

import (
	"context"

	"StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaRunPublisher writes run events to Kafka keyed by symbol.
type KafkaRunPublisher struct {
	producer *pkgkafka.Producer
}

// NewKafkaRunPublisher wraps a producer already bound to the runs topic.
func NewKafkaRunPublisher(p *pkgkafka.Producer) repository.Publisher {
	return &KafkaRunPublisher{producer: p}
}

func (k *KafkaRunPublisher) PublishRun(ctx context.Context, ev repository.RunEvent) error {
	return k.producer.Publish(ctx, ev.Symbol, ev)
}

func (k *KafkaRunPublisher) Close() error {
	return k.producer.Close()
}
