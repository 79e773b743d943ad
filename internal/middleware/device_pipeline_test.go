package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ShotTrace/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: map[string]int{}} }

func (f *fakeMetrics) RecordRoundAnalyzed(string)          {}
func (f *fakeMetrics) RecordShots(int, int)                {}
func (f *fakeMetrics) RecordStrokesGained(string, float64) {}
func (f *fakeMetrics) RecordLatency(string, float64)       {}
func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	f.errors[kind]++
	f.mu.Unlock()
}

func (f *fakeMetrics) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors[kind]
}

type recordingHandler struct {
	mu   sync.Mutex
	got  []*models.DeviceMessage
	fail int
}

func (h *recordingHandler) Handle(_ context.Context, m *models.DeviceMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail > 0 {
		h.fail--
		return errors.New("downstream unavailable")
	}
	h.got = append(h.got, m)
	return nil
}

func (h *recordingHandler) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.got)
}

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func sampleMsg(round string, ts time.Time) *models.DeviceMessage {
	return &models.DeviceMessage{
		Type:    models.DeviceSample,
		RoundID: round,
		Sample:  &models.LocationSample{Timestamp: ts, Latitude: 36.5, Longitude: -121.9, HorizontalAccuracy: 4},
	}
}

func TestValidateMessage(t *testing.T) {
	shot := &models.ShotEvent{EventTimestamp: t0}
	tests := []struct {
		name    string
		msg     *models.DeviceMessage
		wantErr bool
	}{
		{"nil", nil, true},
		{"no round", &models.DeviceMessage{Type: models.DeviceRoundEnd}, true},
		{"round end", &models.DeviceMessage{Type: models.DeviceRoundEnd, RoundID: "r"}, false},
		{"valid sample", sampleMsg("r", t0), false},
		{"sample missing", &models.DeviceMessage{Type: models.DeviceSample, RoundID: "r"}, true},
		{"sample bad latitude", &models.DeviceMessage{Type: models.DeviceSample, RoundID: "r", Sample: &models.LocationSample{Timestamp: t0, Latitude: 91}}, true},
		{"sample negative accuracy", &models.DeviceMessage{Type: models.DeviceSample, RoundID: "r", Sample: &models.LocationSample{Timestamp: t0, HorizontalAccuracy: -1}}, true},
		{"valid shot", &models.DeviceMessage{Type: models.DeviceShot, RoundID: "r", Shot: shot}, false},
		{"shot without time", &models.DeviceMessage{Type: models.DeviceShot, RoundID: "r", Shot: &models.ShotEvent{}}, true},
		{"shot negative penalty", &models.DeviceMessage{Type: models.DeviceShot, RoundID: "r", Shot: &models.ShotEvent{EventTimestamp: t0, PenaltyStrokes: -1}}, true},
		{"shot penalty too large", &models.DeviceMessage{Type: models.DeviceShot, RoundID: "r", Shot: &models.ShotEvent{EventTimestamp: t0, PenaltyStrokes: 11}}, true},
		{"stability out of range", &models.DeviceMessage{Type: models.DeviceStability, RoundID: "r", Stability: &models.StabilityWindow{From: t0, To: t0, Score: 2}}, true},
		{"unknown type", &models.DeviceMessage{Type: "weather", RoundID: "r"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPipelineThrottlesSamplesPerRound(t *testing.T) {
	h := &recordingHandler{}
	m := newFakeMetrics()
	p := NewDevicePipeline(h, m, WithMaxSampleRate(2))
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, sampleMsg("r1", t0)))
	require.NoError(t, p.Process(ctx, sampleMsg("r1", t0.Add(100*time.Millisecond))))
	require.NoError(t, p.Process(ctx, sampleMsg("r1", t0.Add(600*time.Millisecond))))
	require.NoError(t, p.Process(ctx, sampleMsg("r2", t0.Add(100*time.Millisecond))))

	assert.Equal(t, 3, h.len())
	assert.Equal(t, 1, m.count("pipeline_throttle"))

	// round_end resets throttling state for the round.
	require.NoError(t, p.Process(ctx, &models.DeviceMessage{Type: models.DeviceRoundEnd, RoundID: "r1"}))
	require.NoError(t, p.Process(ctx, sampleMsg("r1", t0.Add(700*time.Millisecond))))
	assert.Equal(t, 5, h.len())
}

func TestPipelineBuffersAndRetries(t *testing.T) {
	h := &recordingHandler{fail: 2}
	m := newFakeMetrics()
	p := NewDevicePipeline(h, m, WithBufferSize(4))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	end := &models.DeviceMessage{Type: models.DeviceRoundEnd, RoundID: "r1"}
	err := p.Process(ctx, end)
	require.Error(t, err)
	assert.Equal(t, 1, p.Buffered())

	p.Start(ctx)
	defer p.Stop()
	assert.Eventually(t, func() bool { return h.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, m.count("pipeline_retry"), 1)
}

func TestPipelineTransform(t *testing.T) {
	h := &recordingHandler{}
	skew := func(m *models.DeviceMessage) *models.DeviceMessage {
		if m.Sample != nil {
			s := *m.Sample
			s.Timestamp = s.Timestamp.Add(-time.Hour)
			m.Sample = &s
		}
		return m
	}
	p := NewDevicePipeline(h, newFakeMetrics(), WithTransform(skew))
	require.NoError(t, p.Process(context.Background(), sampleMsg("r", t0)))
	require.Equal(t, 1, h.len())
	assert.Equal(t, t0.Add(-time.Hour), h.got[0].Sample.Timestamp)
}
