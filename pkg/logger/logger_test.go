package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) all() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel).With(String("component", "test"))

	l.Info("round analyzed",
		String("round_id", "r-1"),
		Int("shots", 5),
		Float64("total_sg", -0.54),
		Bool("needs_review", false),
		Duration("took", 1500*time.Millisecond),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "round analyzed", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "r-1", entry["round_id"])
	assert.EqualValues(t, 5, entry["shots"])
	assert.InDelta(t, -0.54, entry["total_sg"], 1e-9)
	assert.Equal(t, false, entry["needs_review"])
	assert.EqualValues(t, 1500, entry["took"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)
	l.Info("dropped")
	l.Debug("dropped")
	assert.Zero(t, buf.Len())
	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Error("nothing", Error(errors.New("boom")))
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("store failed", String("round_id", "r-1"), Error(errors.New("timeout")))
	}
	l.Error("store failed", String("round_id", "r-2"), Error(errors.New("timeout")))
	l.Info("not collected")

	l.RemoveCollector()

	entries := pub.all()
	require.Len(t, entries, 2)
	assert.Equal(t, "logs", pub.topic)
	counts := map[interface{}]int{}
	for _, e := range entries {
		assert.Equal(t, "error", e.Level)
		assert.Contains(t, e.Caller, "logger_test.go:")
		counts[e.Fields["round_id"]] = e.Count
	}
	assert.Equal(t, 3, counts["r-1"])
	assert.Equal(t, 1, counts["r-2"])
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	assert.Equal(t, 1, c.Pending())
	c.AddLog("error", "b", nil, "x.go:2")
	assert.Equal(t, 0, c.Pending())
	assert.Eventually(t, func() bool { return len(pub.all()) == 2 }, time.Second, 10*time.Millisecond)
}
