package repository

import (
	"context"
	"fmt"

	"ShotTrace/internal/domain/models"
	domrepo "ShotTrace/internal/domain/repository"
	pkgkafka "ShotTrace/pkg/kafka"
)

type roundProducer interface {
	PublishWithHeaders(ctx context.Context, topic string, key []byte, value interface{}, headers map[string]string) error
}

// KafkaRoundPublisher publishes analyses keyed by round id so all versions
// of one round land on the same partition in order.
type KafkaRoundPublisher struct {
	producer roundProducer
	topic    string
}

func NewKafkaRoundPublisher(producer *pkgkafka.Producer, topic string) *KafkaRoundPublisher {
	return &KafkaRoundPublisher{producer: producer, topic: topic}
}

func (p *KafkaRoundPublisher) Publish(ctx context.Context, a *models.RoundAnalysis) error {
	if a == nil || a.RoundID == "" {
		return fmt.Errorf("publish round: round id required")
	}
	headers := map[string]string{pkgkafka.HeaderTraceID: a.RoundID}
	if err := p.producer.PublishWithHeaders(ctx, p.topic, []byte(a.RoundID), a, headers); err != nil {
		return fmt.Errorf("publish round %s: %w", a.RoundID, err)
	}
	return nil
}

// Close is a no-op. The producer is shared with the log collector and is
// closed by whoever created it.
func (p *KafkaRoundPublisher) Close() error { return nil }

var _ domrepo.Publisher = (*KafkaRoundPublisher)(nil)
