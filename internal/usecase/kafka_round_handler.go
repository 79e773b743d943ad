package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ShotTrace/internal/domain/models"
	domrepo "ShotTrace/internal/domain/repository"
	pkgkafka "ShotTrace/pkg/kafka"
)

// KafkaRoundHandler consumes published round analyses and writes them to
// storage.
type KafkaRoundHandler struct {
	topic   string
	storage domrepo.RoundStorage
	metrics domrepo.Metrics
}

func NewKafkaRoundHandler(topic string, storage domrepo.RoundStorage, metrics domrepo.Metrics) *KafkaRoundHandler {
	return &KafkaRoundHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaRoundHandler) Topic() string { return h.topic }

func (h *KafkaRoundHandler) Handle(ctx context.Context, b []byte) error {
	var a models.RoundAnalysis
	if err := json.Unmarshal(b, &a); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode round analysis: %w", err)
	}
	if a.RoundID == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("round analysis without round id")
	}
	if !a.AnalyzedAt.IsZero() {
		h.metrics.RecordLatency("analysis_to_consume", time.Since(a.AnalyzedAt).Seconds())
	}

	start := time.Now()
	err := h.storage.Store(ctx, &a)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordRoundAnalyzed(BackendClickHouse)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRoundHandler)(nil)
