package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerDefaults(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, BatchSize: 10})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, kafka.RequireAll, p.writer.RequiredAcks)
	assert.Equal(t, 10, p.writer.BatchSize)
	assert.Equal(t, 3, p.writer.MaxAttempts)
	assert.Equal(t, time.Second, p.writer.BatchTimeout)
	assert.Equal(t, "gzip", p.comp)
	assert.IsType(t, &kafka.LeastBytes{}, p.writer.Balancer)
}

func TestNewProducerOptions(t *testing.T) {
	p, err := NewProducer(ProducerConfig{
		Brokers:     []string{"localhost:9092"},
		Acks:        "one",
		Compression: "zstd",
		HashByKey:   true,
	})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, kafka.RequireOne, p.writer.RequiredAcks)
	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
}

func TestNewProducerRejectsBadConfig(t *testing.T) {
	_, err := NewProducer(ProducerConfig{})
	assert.Error(t, err)

	_, err = NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, Acks: "-1"})
	assert.Error(t, err)
}
